package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/70ki8suda/my-new-gear/configs"
	"github.com/70ki8suda/my-new-gear/internal/feed"
	"github.com/70ki8suda/my-new-gear/internal/items"
	"github.com/70ki8suda/my-new-gear/internal/posts"
	"github.com/70ki8suda/my-new-gear/internal/relationships"
	"github.com/70ki8suda/my-new-gear/internal/storage/s3"
	"github.com/70ki8suda/my-new-gear/internal/users"
	"github.com/70ki8suda/my-new-gear/pkg/db"
)

type Container struct {
	DB          *gorm.DB
	FeedService feed.Service
	FeedCache   *feed.Cache
}

// BuildContainer wires repositories and the feed service. rdb may be nil, in
// which case the combined feed runs uncached.
func BuildContainer(cfg *configs.Config, rdb *redis.Client) (*Container, error) {
	dbConn := db.NewDb(cfg)

	relRepo := relationships.NewRepository(dbConn.DB)
	postRepo := posts.NewRepository(dbConn.DB)
	userRepo := users.NewRepository(dbConn.DB)
	itemRepo := items.NewRepository(dbConn.DB)

	resolver, err := buildImageResolver(cfg)
	if err != nil {
		return nil, err
	}

	opts := []feed.Option{
		feed.WithMergeWindow(cfg.MergeWindow),
		feed.WithPageLimits(cfg.DefaultLimit, cfg.MaxLimit),
	}
	var cache *feed.Cache
	if rdb != nil {
		cache = feed.NewCache(rdb, cfg.CacheTTL)
		opts = append(opts, feed.WithCache(cache))
	}

	svc := feed.NewService(relRepo, postRepo, userRepo, itemRepo, resolver, opts...)

	return &Container{
		DB:          dbConn.DB,
		FeedService: svc,
		FeedCache:   cache,
	}, nil
}

func buildImageResolver(cfg *configs.Config) (items.ImageResolver, error) {
	if cfg.S3Endpoint == "" {
		return items.NewStaticResolver(cfg.ImageBaseURL), nil
	}
	storage, err := s3.New(s3.Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		return nil, err
	}
	return items.NewS3Resolver(storage), nil
}
