package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client implements Storage on a single bucket with the AWS SDK.
type S3Client struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	urlExpiry time.Duration
}

var _ Storage = (*S3Client)(nil)

// NewS3Client creates a new S3 client from configuration
func NewS3Client(ctx context.Context, cfg *S3Config, bucket string) (*S3Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.GetEndpointURL())
		o.UsePathStyle = true // Required for MinIO and some S3-compatible services
	})

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}
	return &S3Client{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		urlExpiry: expiry,
	}, nil
}

// List returns the direct children of prefix, one page at most. Name order
// matches the server's key order, so a single request fills the page; any
// other order has to see every child before the page can be cut.
func (c *S3Client) List(ctx context.Context, prefix string, opts ListOptions) ([]RawEntry, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(Separator),
	}
	byName := opts.SortBy == "" || opts.SortBy == SortByName
	if byName && opts.Limit > 0 {
		// One extra key for the prefix's own marker, which is dropped.
		input.MaxKeys = aws.Int32(int32(opts.Limit + 1))
	}

	var entries []RawEntry
	paginator := s3.NewListObjectsV2Paginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		entries = appendListPage(entries, page, prefix)
		if byName {
			break
		}
	}
	return pageEntries(entries, opts), nil
}

// appendListPage converts one ListObjectsV2 page into entries relative to
// prefix.
func appendListPage(entries []RawEntry, page *s3.ListObjectsV2Output, prefix string) []RawEntry {
	for _, p := range page.CommonPrefixes {
		name := strings.TrimPrefix(aws.ToString(p.Prefix), prefix)
		if name != "" {
			entries = append(entries, RawEntry{Name: name})
		}
	}
	for _, obj := range page.Contents {
		name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
		if name == "" {
			continue // the prefix's own directory marker
		}
		entries = append(entries, RawEntry{
			Name:         name,
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	return entries
}

// Upload puts body at key. Without Upsert the write is conditional on the key
// not existing yet.
func (c *S3Client) Upload(ctx context.Context, key string, body io.Reader, size int64, opts UploadOptions) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if !opts.Upsert {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := c.client.PutObject(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return fmt.Errorf("%w: %s", ErrObjectExists, key)
		}
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// Remove deletes keys in one batch request.
func (c *S3Client) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	result, err := c.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(c.bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to delete objects: %w", err)
	}
	if len(result.Errors) > 0 {
		first := result.Errors[0]
		return fmt.Errorf("failed to delete %s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
	}
	return nil
}

// RetrievalURL presigns a GET for key.
func (c *S3Client) RetrievalURL(ctx context.Context, key string) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.urlExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}

// HeadBucket checks if a bucket exists and is accessible
func (c *S3Client) HeadBucket(ctx context.Context) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchBucket") {
			return fmt.Errorf("bucket '%s' does not exist", c.bucket)
		}
		return fmt.Errorf("failed to access bucket '%s': %w", c.bucket, err)
	}
	return nil
}

// pageEntries orders a merged prefix/object page by opts.SortBy and caps it
// at opts.Limit entries. Most recently modified comes first; folders carry no
// timestamp and sort after files. Ties fall back to the name.
func pageEntries(entries []RawEntry, opts ListOptions) []RawEntry {
	byName := func(i, j int) bool { return entries[i].Name < entries[j].Name }
	switch opts.SortBy {
	case SortByModified:
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i].LastModified, entries[j].LastModified
			if !a.Equal(b) {
				return a.After(b)
			}
			return byName(i, j)
		})
	default:
		sort.SliceStable(entries, byName)
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		return entries[:opts.Limit]
	}
	return entries
}
