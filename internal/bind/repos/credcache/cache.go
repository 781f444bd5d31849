// Package credcache keeps resolved rndc.conf documents in an LRU so repeated
// credential lookups skip re-reading and re-parsing unchanged files.
package credcache

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-bindctl/internal/bind/repos/rndcconf"
)

// ResolveFunc resolves the configuration rooted at path.
type ResolveFunc func(path string) (rndcconf.Resolution, error)

// Cache resolves rndc.conf files, serving earlier results while none of
// the files they were built from has changed.
type Cache interface {
	Resolve(path string) (rndcconf.Resolution, error)
	Invalidate(path string)
	Len() int
	Purge()
	Stats() Stats
}

// Stats are cumulative cache counters. A hit served from a stale entry is
// counted as a miss.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type stamp struct {
	path    string
	modTime time.Time
	size    int64
}

type entry struct {
	res    rndcconf.Resolution
	stamps []stamp
}

type resolutionCache struct {
	lru       *lru.Cache[string, entry]
	resolve   ResolveFunc
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache resolves on every call and keeps nothing.
type disabledCache struct {
	resolve ResolveFunc
	misses  uint64
}

var newLRU = func(size int, onEvict func(string, entry)) (*lru.Cache[string, entry], error) {
	return lru.NewWithEvict(size, onEvict)
}

// New returns a cache holding up to size resolutions. A nil resolve uses
// rndcconf.Resolve. If size <= 0 the returned cache never stores anything.
func New(size int, resolve ResolveFunc) (Cache, error) {
	if resolve == nil {
		resolve = rndcconf.Resolve
	}
	if size <= 0 {
		return &disabledCache{resolve: resolve}, nil
	}

	c := &resolutionCache{resolve: resolve}
	cache, err := newLRU(size, func(string, entry) {
		atomic.AddUint64(&c.evictions, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating credential cache: %w", err)
	}
	c.lru = cache
	return c, nil
}

// Resolve returns the resolution for path, from the cache when every file it
// was built from still has the same modification time and size. Errors are
// never cached.
func (c *resolutionCache) Resolve(path string) (rndcconf.Resolution, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	if e, ok := c.lru.Get(key); ok && e.fresh() {
		atomic.AddUint64(&c.hits, 1)
		return copyResolution(e.res), nil
	}
	atomic.AddUint64(&c.misses, 1)

	res, err := c.resolve(key)
	if err != nil {
		c.lru.Remove(key)
		return rndcconf.Resolution{}, err
	}
	stamps, ok := stampFiles(res.Files)
	if ok {
		c.lru.Add(key, entry{res: copyResolution(res), stamps: stamps})
	} else {
		c.lru.Remove(key)
	}
	return res, nil
}

func (c *resolutionCache) Invalidate(path string) {
	if key, err := filepath.Abs(path); err == nil {
		path = key
	}
	c.lru.Remove(path)
}

func (c *resolutionCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *resolutionCache) Purge() { c.lru.Purge() }

func (c *resolutionCache) Stats() Stats {
	return Stats{
		Hits:      atomic.LoadUint64(&c.hits),
		Misses:    atomic.LoadUint64(&c.misses),
		Evictions: atomic.LoadUint64(&c.evictions),
	}
}

func (e entry) fresh() bool {
	for _, s := range e.stamps {
		info, err := os.Stat(s.path)
		if err != nil || !info.ModTime().Equal(s.modTime) || info.Size() != s.size {
			return false
		}
	}
	return true
}

func stampFiles(files []string) ([]stamp, bool) {
	stamps := make([]stamp, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, false
		}
		stamps = append(stamps, stamp{path: f, modTime: info.ModTime(), size: info.Size()})
	}
	return stamps, true
}

// copyResolution detaches the maps and slices so callers cannot change a
// cached entry.
func copyResolution(r rndcconf.Resolution) rndcconf.Resolution {
	out := r
	out.Document.Keys = maps.Clone(r.Document.Keys)
	out.Document.Servers = maps.Clone(r.Document.Servers)
	for addr, srv := range out.Document.Servers {
		srv.Addresses = slices.Clone(srv.Addresses)
		out.Document.Servers[addr] = srv
	}
	out.Document.Includes = slices.Clone(r.Document.Includes)
	out.Files = slices.Clone(r.Files)
	return out
}

// disabledCache implementation

func (d *disabledCache) Resolve(path string) (rndcconf.Resolution, error) {
	atomic.AddUint64(&d.misses, 1)
	return d.resolve(path)
}

func (d *disabledCache) Invalidate(string) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

func (d *disabledCache) Stats() Stats { return Stats{Misses: atomic.LoadUint64(&d.misses)} }
