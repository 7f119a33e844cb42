package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingCache_ReplaceThenCurrent(t *testing.T) {
	c := NewListingCache()
	assert.Empty(t, c.Current())

	entries := []Entry{Classify("a.txt"), Classify("b/"), Classify("c.md")}
	c.Replace(entries)

	assert.Equal(t, entries, c.Current())
}

func TestListingCache_SortsByName(t *testing.T) {
	c := NewListingCache()
	c.Replace([]Entry{Classify("z.txt"), Classify("a/"), Classify("m.txt")})

	var names []string
	for _, e := range c.Current() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"a/", "m.txt", "z.txt"}, names)
}

func TestListingCache_CurrentDoesNotAlias(t *testing.T) {
	c := NewListingCache()
	input := []Entry{Classify("a.txt"), Classify("b.txt")}
	c.Replace(input)

	got := c.Current()
	got[0].DisplayName = "mutated"
	got = append(got[:1], Classify("x.txt"))
	_ = got
	input[1].DisplayName = "also mutated"

	again := c.Current()
	assert.Equal(t, "a.txt", again[0].DisplayName)
	assert.Equal(t, "b.txt", again[1].DisplayName)
	assert.Len(t, again, 2)
}

func TestListingCache_Reset(t *testing.T) {
	c := NewListingCache()
	c.Replace([]Entry{Classify("a.txt")})
	c.Reset()
	assert.Empty(t, c.Current())
}

func TestListingCache_ConcurrentReaders(t *testing.T) {
	c := NewListingCache()
	small := []Entry{Classify("a")}
	large := []Entry{Classify("a"), Classify("b"), Classify("c")}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				c.Replace(small)
			} else {
				c.Replace(large)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			n := len(c.Current())
			if n != 0 && n != 1 && n != 3 {
				t.Errorf("observed partial listing of %d entries", n)
				return
			}
		}
	}()
	wg.Wait()
}
