package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	DBHost      string
	DBPort      string
	DBUser      string
	DBPass      string
	DBName      string
	AutoMigrate bool

	RedisHost string
	RedisPort string

	KafkaBootstrap string
	PostsTopic     string
	KafkaGroupID   string

	// MergeWindow is the number of entries over-fetched from each feed source
	// before dedup/sort/pagination. A viewer whose combined feed grows past this
	// window before the requested page is reached will see gaps; that is an
	// accepted approximation of the pull-based design.
	MergeWindow  int
	DefaultLimit int
	MaxLimit     int
	CacheTTL     time.Duration

	ImageBaseURL string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3Bucket     string
	S3UseSSL     bool
}

func LoadConfig() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", ":8086"),

		DBHost:      getEnv("FEED_DB_HOST", "localhost"),
		DBPort:      getEnv("FEED_DB_PORT", "5432"),
		DBUser:      getEnv("FEED_DB_USER", "postgres"),
		DBPass:      getEnv("FEED_DB_PASS", "postgres"),
		DBName:      getEnv("FEED_DB_NAME", "gear_db"),
		AutoMigrate: getEnvBool("FEED_DB_AUTO_MIGRATE", false),

		RedisHost: getEnv("REDIS_HOST", ""),
		RedisPort: getEnv("REDIS_PORT", "6379"),

		KafkaBootstrap: getEnv("KAFKA_BOOTSTRAP_SERVERS", ""),
		PostsTopic:     getEnv("POSTS_TOPIC", "posts.events"),
		KafkaGroupID:   getEnv("KAFKA_GROUP_ID", "feed-service"),

		MergeWindow:  getEnvInt("FEED_MERGE_WINDOW", 100),
		DefaultLimit: getEnvInt("FEED_DEFAULT_LIMIT", 20),
		MaxLimit:     getEnvInt("FEED_MAX_LIMIT", 100),
		CacheTTL:     getEnvDuration("FEED_CACHE_TTL", time.Minute),

		ImageBaseURL: getEnv("IMAGE_BASE_URL", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3Bucket:     getEnv("S3_BUCKET", "photos"),
		S3UseSSL:     getEnvBool("S3_USE_SSL", false),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName,
	)
}

func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
