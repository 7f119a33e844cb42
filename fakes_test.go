package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// memStore is an in-memory Storage with S3 delimiter listing semantics.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	uploadErr map[string]error
	listErr   error
	removeErr error

	lists        []string
	listOpts     []ListOptions
	uploads      []string
	contentTypes map[string]string
	removes      [][]string
}

func newMemStore(keys ...string) *memStore {
	s := &memStore{objects: map[string][]byte{}, uploadErr: map[string]error{}, contentTypes: map[string]string{}}
	for _, k := range keys {
		s.objects[k] = nil
	}
	return s
}

func (s *memStore) List(_ context.Context, prefix string, opts ListOptions) ([]RawEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = append(s.lists, prefix)
	s.listOpts = append(s.listOpts, opts)
	if s.listErr != nil {
		return nil, s.listErr
	}

	seen := map[string]bool{}
	var entries []RawEntry
	for key, data := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if rest == "" {
			continue
		}
		if i := strings.Index(rest, Separator); i >= 0 {
			child := rest[:i+1]
			if !seen[child] {
				seen[child] = true
				entries = append(entries, RawEntry{Name: child})
			}
			continue
		}
		entries = append(entries, RawEntry{Name: rest, Size: int64(len(data))})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	return entries, nil
}

func (s *memStore) Upload(_ context.Context, key string, body io.Reader, _ int64, opts UploadOptions) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, key)
	s.contentTypes[key] = opts.ContentType
	if err := s.uploadErr[key]; err != nil {
		return err
	}
	if _, exists := s.objects[key]; exists && !opts.Upsert {
		return fmt.Errorf("%w: %s", ErrObjectExists, key)
	}
	s.objects[key] = data
	return nil
}

func (s *memStore) Remove(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes = append(s.removes, append([]string(nil), keys...))
	if s.removeErr != nil {
		return s.removeErr
	}
	for _, k := range keys {
		delete(s.objects, k)
	}
	return nil
}

func (s *memStore) RetrievalURL(_ context.Context, key string) (string, error) {
	return "https://example.test/bucket/" + key + "?sig=1", nil
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *memStore) listCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lists)
}

func (s *memStore) removeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.removes)
}

type stubConnector struct {
	store Storage
	err   error
	calls []Credentials
}

func (c *stubConnector) Connect(_ context.Context, creds Credentials) (Storage, error) {
	c.calls = append(c.calls, creds)
	if c.err != nil {
		return nil, c.err
	}
	return c.store, nil
}

// scriptedGate answers every question with answer and records the prompts.
type scriptedGate struct {
	answer  bool
	prompts []string
}

func (g *scriptedGate) Confirm(_ context.Context, prompt string) (bool, error) {
	g.prompts = append(g.prompts, prompt)
	return g.answer, nil
}

// blockingGate holds Confirm until release receives the answer.
type blockingGate struct {
	asked   chan string
	release chan bool
}

func newBlockingGate() *blockingGate {
	return &blockingGate{asked: make(chan string, 1), release: make(chan bool)}
}

func (g *blockingGate) Confirm(ctx context.Context, prompt string) (bool, error) {
	g.asked <- prompt
	select {
	case ok := <-g.release:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type stubDownloader struct {
	urls  []string
	names []string
	err   error
}

func (d *stubDownloader) Download(_ context.Context, url, filename string) (string, error) {
	d.urls = append(d.urls, url)
	d.names = append(d.names, filename)
	if d.err != nil {
		return "", d.err
	}
	return "/tmp/" + filename, nil
}

func textFile(name, content string) UploadFile {
	return UploadFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}
