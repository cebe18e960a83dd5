package pipeline

import (
	"context"
	"time"

	"github.com/hupe1980/pandora"
	"github.com/hupe1980/pandora/blobstore"
	minioblob "github.com/hupe1980/pandora/blobstore/minio"
	s3blob "github.com/hupe1980/pandora/blobstore/s3"
	"github.com/hupe1980/pandora/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// OpenStore creates the store selected by cfg. A positive CacheTTL adds a
// read-through cache and positive Retries a retrying layer on top.
func OpenStore(ctx context.Context, cfg config.StorageConfig, logger *pandora.Logger) (blobstore.Store, error) {
	if logger == nil {
		logger = pandora.NoopLogger()
	}

	var store blobstore.Store

	switch cfg.Backend {
	case "local":
		store = blobstore.NewLocalStore(cfg.Root)
	case "memory":
		store = blobstore.NewMemoryStore()
	case "s3":
		opts := []s3blob.Option{s3blob.WithPrefix(cfg.Prefix)}
		if cfg.Region != "" {
			opts = append(opts, s3blob.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3blob.WithEndpoint(cfg.Endpoint, cfg.PathStyle))
		}
		s, err := s3blob.New(ctx, cfg.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		store = s
	case "minio":
		creds := credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvMinio{},
			&credentials.EnvAWS{},
		})
		if cfg.AccessKey != "" {
			creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
		}
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  creds,
			Secure: cfg.Secure,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, err
		}
		store = minioblob.NewStore(client, cfg.Bucket, cfg.Prefix)
	default:
		return nil, pandora.NewInputError("pipeline.OpenStore", "unknown storage backend %q", cfg.Backend)
	}

	if cfg.CacheTTL > 0 {
		store = blobstore.NewCachingStore(store, cfg.CacheTTL)
	}

	if cfg.Retries > 0 {
		store = blobstore.NewRetryingStoreWithOptions(store, blobstore.RetryOptions{
			MaxRetries: cfg.Retries,
			OnRetry: func(op, name string, err error, wait time.Duration) {
				logger.WarnContext(ctx, "retrying store call",
					"op", op,
					"name", name,
					"error", err,
					"wait", wait,
				)
			},
		})
	}

	return store, nil
}
