package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// bucketStorage is a Storage that can verify its bucket is reachable.
type bucketStorage interface {
	Storage
	HeadBucket(ctx context.Context) error
}

// BucketConnector builds the configured backend for one bucket.
type BucketConnector struct {
	cfg    *S3Config
	bucket string
	log    zerolog.Logger
}

var _ Connector = (*BucketConnector)(nil)

// NewBucketConnector returns a connector for bucket using cfg as the base settings.
func NewBucketConnector(cfg *S3Config, bucket string, log zerolog.Logger) *BucketConnector {
	return &BucketConnector{cfg: cfg, bucket: bucket, log: log}
}

// Connect creates a client for creds and probes the bucket with it.
func (c *BucketConnector) Connect(ctx context.Context, creds Credentials) (Storage, error) {
	cfg, err := c.cfg.WithCredentials(creds)
	if err != nil {
		return nil, err
	}

	var store bucketStorage
	switch cfg.Backend {
	case BackendMinio:
		store, err = NewMinioClient(cfg, c.bucket)
	case BackendS3, "":
		store, err = NewS3Client(ctx, cfg, c.bucket)
	default:
		err = fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := store.HeadBucket(ctx); err != nil {
		return nil, err
	}
	c.log.Info().
		Str("backend", cfg.Backend).
		Str("endpoint", cfg.GetEndpointURL()).
		Str("bucket", c.bucket).
		Msg("bucket reachable")
	return store, nil
}
