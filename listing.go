package main

import (
	"sort"
	"sync"
)

// ListingCache holds the most recent directory listing. Readers always get
// a private copy; writers swap the whole listing at once.
type ListingCache struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewListingCache returns an empty cache.
func NewListingCache() *ListingCache {
	return &ListingCache{}
}

// Replace swaps in entries, sorted by raw name.
func (c *ListingCache) Replace(entries []Entry) {
	next := make([]Entry, len(entries))
	copy(next, entries)
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].Name < next[j].Name
	})

	c.mu.Lock()
	c.entries = next
	c.mu.Unlock()
}

// Current returns a copy of the held listing.
func (c *ListingCache) Current() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Reset discards the listing; the controller calls it whenever the path
// changes so a listing never outlives the path it was loaded for.
func (c *ListingCache) Reset() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}
