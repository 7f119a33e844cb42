package main

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeBucket = "media"

// newFakeS3 serves an in-memory S3 with one empty bucket and returns a config
// pointing at it.
func newFakeS3(t *testing.T, backend string) *S3Config {
	t.Helper()
	mem := s3mem.New()
	require.NoError(t, mem.CreateBucket(fakeBucket))
	srv := httptest.NewServer(gofakes3.New(mem).Server())
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return &S3Config{
		AccessKey: "ak",
		SecretKey: "sk",
		HostBase:  u.Host,
		UseHTTPS:  false,
		Region:    "us-east-1",
		Backend:   backend,
		PageSize:  defaultPageSize,
		SortBy:    SortByName,
		URLExpiry: time.Minute,
	}
}

// bucketLayout is what the browser writes for a folder docs/ holding b.txt
// and a subfolder sub/, plus a directory marker written by other tools.
var bucketLayout = []string{"a.txt", "docs/", "docs/.keep", "docs/b.txt", "docs/sub/c.txt"}

func seedBucket(t *testing.T, store Storage) {
	t.Helper()
	for _, key := range bucketLayout {
		body := "content of " + key
		if strings.HasSuffix(key, Separator) || strings.HasSuffix(key, PlaceholderSuffix) {
			body = ""
		}
		err := store.Upload(context.Background(), key, strings.NewReader(body), int64(len(body)), UploadOptions{Upsert: true})
		require.NoError(t, err, key)
	}
}

func rawNames(entries []RawEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

// exerciseStorage runs the bucket layout checks shared by both backends.
func exerciseStorage(t *testing.T, store Storage) {
	ctx := context.Background()
	seedBucket(t, store)

	t.Run("root", func(t *testing.T) {
		entries, err := store.List(ctx, "", ListOptions{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt", "docs/"}, rawNames(entries))
		assert.Equal(t, int64(len("content of a.txt")), entries[0].Size)
		assert.False(t, entries[0].LastModified.IsZero())
	})

	t.Run("subfolder skips its own marker", func(t *testing.T) {
		entries, err := store.List(ctx, "docs/", ListOptions{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, []string{".keep", "b.txt", "sub/"}, rawNames(entries))
	})

	t.Run("limit caps the page", func(t *testing.T) {
		entries, err := store.List(ctx, "docs/", ListOptions{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{".keep", "b.txt"}, rawNames(entries))
	})

	t.Run("conditional upload", func(t *testing.T) {
		err := store.Upload(ctx, "docs/.keep", strings.NewReader(""), 0, UploadOptions{})
		assert.ErrorIs(t, err, ErrObjectExists)

		require.NoError(t, store.Upload(ctx, "new/.keep", strings.NewReader(""), 0, UploadOptions{}))
		entries, err := store.List(ctx, "", ListOptions{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt", "docs/", "new/"}, rawNames(entries))
	})

	t.Run("remove folder marker and placeholder", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, []string{"new/", "new/.keep"}))
		entries, err := store.List(ctx, "", ListOptions{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt", "docs/"}, rawNames(entries))

		require.NoError(t, store.Remove(ctx, []string{"docs/b.txt"}))
		entries, err = store.List(ctx, "docs/", ListOptions{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, []string{".keep", "sub/"}, rawNames(entries))
	})

	t.Run("retrieval url downloads the object", func(t *testing.T) {
		ref, err := store.RetrievalURL(ctx, "a.txt")
		require.NoError(t, err)

		dir := t.TempDir()
		dest, err := NewHTTPDownloader(dir, nil).Download(ctx, ref, "a.txt")
		require.NoError(t, err)
		assert.FileExists(t, dest)
	})
}

func TestS3Client_BucketLayout(t *testing.T) {
	cfg := newFakeS3(t, BackendS3)
	client, err := NewS3Client(context.Background(), cfg, fakeBucket)
	require.NoError(t, err)
	require.NoError(t, client.HeadBucket(context.Background()))

	exerciseStorage(t, client)
}

func TestS3Client_MissingBucket(t *testing.T) {
	cfg := newFakeS3(t, BackendS3)
	client, err := NewS3Client(context.Background(), cfg, "missing")
	require.NoError(t, err)
	assert.Error(t, client.HeadBucket(context.Background()))
}

func TestBucketConnector_ConnectsThroughCredentials(t *testing.T) {
	cfg := newFakeS3(t, BackendS3)
	connector := NewBucketConnector(cfg, fakeBucket, zerolog.Nop())

	store, err := connector.Connect(context.Background(), cfg.Credentials())
	require.NoError(t, err)
	_, err = store.List(context.Background(), "", ListOptions{Limit: 10})
	require.NoError(t, err)

	_, err = NewBucketConnector(cfg, "missing", zerolog.Nop()).Connect(context.Background(), cfg.Credentials())
	assert.Error(t, err)
}

func TestPageEntries(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	entries := func() []RawEntry {
		return []RawEntry{
			{Name: "old.txt", LastModified: day},
			{Name: "docs/"},
			{Name: "new.txt", LastModified: day.Add(48 * time.Hour)},
			{Name: "mid.txt", LastModified: day.Add(24 * time.Hour)},
			{Name: "also-mid.txt", LastModified: day.Add(24 * time.Hour)},
		}
	}

	cases := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"default is name", ListOptions{}, []string{"also-mid.txt", "docs/", "mid.txt", "new.txt", "old.txt"}},
		{"name with limit", ListOptions{Limit: 2, SortBy: SortByName}, []string{"also-mid.txt", "docs/"}},
		{"modified", ListOptions{SortBy: SortByModified}, []string{"new.txt", "also-mid.txt", "mid.txt", "old.txt", "docs/"}},
		{"modified with limit", ListOptions{Limit: 1, SortBy: SortByModified}, []string{"new.txt"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, rawNames(pageEntries(entries(), c.opts)))
		})
	}
}
