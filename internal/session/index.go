package session

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/nao1215/dupscan/internal/model"
)

// Index maps fingerprints to the ordered set of URLs that produced them.
// Registration is idempotent and URLs are compared case-insensitively.
// Each bucket has its own lock, so pages with different fingerprints
// never contend.
type Index[K comparable] struct {
	buckets sync.Map // K -> *bucket
	keys    atomic.Int64
	urls    atomic.Int64
}

type bucket struct {
	mu   sync.Mutex
	urls []string
	seen map[string]struct{}
}

// NewIndex returns an empty index.
func NewIndex[K comparable]() *Index[K] {
	return &Index[K]{}
}

// Register adds url under key. It returns false if the URL was already
// registered under key.
func (ix *Index[K]) Register(key K, url string) bool {
	b := ix.bucketFor(key)

	id := model.URLKey(url)
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.seen[id]; ok {
		return false
	}
	b.seen[id] = struct{}{}
	b.urls = append(b.urls, url)
	ix.urls.Add(1)
	return true
}

func (ix *Index[K]) bucketFor(key K) *bucket {
	if v, ok := ix.buckets.Load(key); ok {
		return v.(*bucket)
	}
	v, loaded := ix.buckets.LoadOrStore(key, &bucket{seen: make(map[string]struct{})})
	if !loaded {
		ix.keys.Add(1)
	}
	return v.(*bucket)
}

// Lookup returns a snapshot of the URLs registered under key, in
// registration order. The snapshot is not affected by later registrations.
func (ix *Index[K]) Lookup(key K) []string {
	v, ok := ix.buckets.Load(key)
	if !ok {
		return nil
	}
	return v.(*bucket).snapshot()
}

func (b *bucket) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.urls)
}

// RangeKeys calls fn with every registered key until fn returns false.
// No bucket is locked or copied, so callers can filter keys cheaply and
// Lookup only the buckets they need. Keys added during RangeKeys may or
// may not be visited.
func (ix *Index[K]) RangeKeys(fn func(key K) bool) {
	ix.buckets.Range(func(k, _ any) bool {
		return fn(k.(K))
	})
}

// Len returns the number of distinct fingerprints.
func (ix *Index[K]) Len() int {
	return int(ix.keys.Load())
}

// URLCount returns the number of registered (fingerprint, URL) pairs.
func (ix *Index[K]) URLCount() int {
	return int(ix.urls.Load())
}

// Clear drops every bucket.
func (ix *Index[K]) Clear() {
	ix.buckets.Clear()
	ix.keys.Store(0)
	ix.urls.Store(0)
}
