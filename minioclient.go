package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient implements Storage on a single bucket with minio-go.
type MinioClient struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

var _ Storage = (*MinioClient)(nil)

// NewMinioClient creates a bucket-scoped client from configuration.
func NewMinioClient(cfg *S3Config, bucket string) (*MinioClient, error) {
	client, err := minio.New(cfg.HostBase, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseHTTPS,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}
	return &MinioClient{client: client, bucket: bucket, urlExpiry: expiry}, nil
}

// List returns the direct children of prefix, one page at most.
func (c *MinioClient) List(ctx context.Context, prefix string, opts ListOptions) ([]RawEntry, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	byName := opts.SortBy == "" || opts.SortBy == SortByName
	listOpts := minio.ListObjectsOptions{Prefix: prefix, Recursive: false}
	if byName && opts.Limit > 0 {
		listOpts.MaxKeys = opts.Limit + 1
	}

	var entries []RawEntry
	for obj := range c.client.ListObjects(ctx, c.bucket, listOpts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" {
			continue
		}
		entries = append(entries, RawEntry{
			Name:         name,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
		// The channel keeps paging on its own. Keys arrive in name order,
		// so a name-sorted page is complete once it is full.
		if byName && opts.Limit > 0 && len(entries) >= opts.Limit {
			break
		}
	}
	return pageEntries(entries, opts), nil
}

// Upload puts body at key. Without Upsert an existing key is reported as
// ErrObjectExists.
func (c *MinioClient) Upload(ctx context.Context, key string, body io.Reader, size int64, opts UploadOptions) error {
	if !opts.Upsert {
		_, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return fmt.Errorf("%w: %s", ErrObjectExists, key)
		}
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			return fmt.Errorf("failed to stat object: %w", err)
		}
	}

	_, err := c.client.PutObject(ctx, c.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// Remove deletes keys and reports the first failure.
func (c *MinioClient) Remove(ctx context.Context, keys []string) error {
	objects := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)

	var firstErr error
	for rerr := range c.client.RemoveObjects(ctx, c.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to delete %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	return firstErr
}

// RetrievalURL presigns a GET for key.
func (c *MinioClient) RetrievalURL(ctx context.Context, key string) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, c.bucket, key, c.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}

// HeadBucket checks that the bucket exists and is accessible.
func (c *MinioClient) HeadBucket(ctx context.Context) error {
	ok, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to access bucket '%s': %w", c.bucket, err)
	}
	if !ok {
		return fmt.Errorf("bucket '%s' does not exist", c.bucket)
	}
	return nil
}
