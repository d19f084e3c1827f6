package items

import (
	"context"
	"strings"
	"time"

	"github.com/70ki8suda/my-new-gear/internal/storage/s3"
)

// ImageResolver turns a stored photo key into a URL a client can fetch.
type ImageResolver interface {
	ImageURL(ctx context.Context, key string) (string, error)
}

// StaticResolver joins relative keys onto a base URL. Absolute URLs pass
// through untouched.
type StaticResolver struct {
	BaseURL string
}

func NewStaticResolver(baseURL string) *StaticResolver {
	return &StaticResolver{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (r *StaticResolver) ImageURL(_ context.Context, key string) (string, error) {
	if isAbsolute(key) || r.BaseURL == "" {
		return key, nil
	}
	return r.BaseURL + "/" + strings.TrimPrefix(key, "/"), nil
}

const presignTTL = 15 * time.Minute

// S3Resolver presigns object keys against the configured bucket.
type S3Resolver struct {
	storage *s3.Storage
}

func NewS3Resolver(storage *s3.Storage) *S3Resolver {
	return &S3Resolver{storage: storage}
}

func (r *S3Resolver) ImageURL(ctx context.Context, key string) (string, error) {
	if isAbsolute(key) {
		return key, nil
	}
	u, err := r.storage.PresignGet(ctx, key, presignTTL)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func isAbsolute(key string) bool {
	return strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://")
}
