// Package spirvcache memoizes WGSL-to-SPIR-V compilation results.
// Shader compilation is by far the most expensive step of pipeline
// creation, and the same node shader is recompiled whenever a graph is
// rebuilt or a second executor runs it; the cache makes those repeats
// free.
//
// The cache is sharded by source hash so concurrent executors compiling
// different shaders never contend on one lock.
package spirvcache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// shardCount must be a power of 2 for fast modulo via bitwise AND.
const shardCount = 8

// Cache maps WGSL source to compiled SPIR-V words. Entries are keyed by
// the full source text, so hash collisions only affect shard placement,
// never correctness. The working set is the distinct shaders of a
// process, which stays small; entries are never evicted.
type Cache struct {
	shards [shardCount]shard

	hits   atomic.Uint64
	misses atomic.Uint64
}

type shard struct {
	mu    sync.Mutex
	words map[string][]uint32
}

// New returns an empty cache.
func New() *Cache {
	c := &Cache{}
	for i := range c.shards {
		c.shards[i].words = make(map[string][]uint32)
	}
	return c
}

func (c *Cache) shard(source string) *shard {
	h := fnv.New64a()
	_, _ = h.Write([]byte(source)) // fnv.Write never returns an error
	return &c.shards[h.Sum64()&(shardCount-1)]
}

// GetOrCompile returns the cached SPIR-V for a source, invoking compile
// on first sight. The compile runs with the shard lock held, so two
// goroutines racing on the same new shader compile it once. Failed
// compilations are not cached; a broken shader is reported on every
// attempt rather than latched here.
//
// The returned slice is shared; callers must not modify it.
func (c *Cache) GetOrCompile(source string, compile func(string) ([]uint32, error)) ([]uint32, error) {
	s := c.shard(source)
	s.mu.Lock()
	defer s.mu.Unlock()

	if words, ok := s.words[source]; ok {
		c.hits.Add(1)
		return words, nil
	}

	c.misses.Add(1)
	words, err := compile(source)
	if err != nil {
		return nil, err
	}
	s.words[source] = words
	return words, nil
}

// Len returns the number of cached shaders.
func (c *Cache) Len() int {
	total := 0
	for i := range c.shards {
		c.shards[i].mu.Lock()
		total += len(c.shards[i].words)
		c.shards[i].mu.Unlock()
	}
	return total
}

// Stats reports hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
