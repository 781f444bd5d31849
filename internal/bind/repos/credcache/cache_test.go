package credcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-bindctl/internal/bind/domain"
	"github.com/haukened/rr-bindctl/internal/bind/repos/rndcconf"
)

const keyConf = `key "rndc-key" { algorithm hmac-sha256; secret "c2VjcmV0"; };`

func writeConf(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestCache_HitWhileUnchanged(t *testing.T) {
	dir := tempDir(t)
	path := writeConf(t, dir, "rndc.conf", keyConf)

	c, err := New(4, nil)
	require.NoError(t, err)

	first, err := c.Resolve(path)
	require.NoError(t, err)
	second, err := c.Resolve(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, c.Stats())
	assert.Equal(t, 1, c.Len())
}

func TestCache_IncludedFileChangeInvalidates(t *testing.T) {
	dir := tempDir(t)
	writeConf(t, dir, "rndc.key", keyConf)
	path := writeConf(t, dir, "rndc.conf", `include "rndc.key"; options { default-key "rndc-key"; };`)

	c, err := New(4, nil)
	require.NoError(t, err)

	res, err := c.Resolve(path)
	require.NoError(t, err)
	assert.Len(t, res.Files, 2)

	writeConf(t, dir, "rndc.key", `key "rndc-key" { algorithm hmac-sha512; secret "bmV3LXNlY3JldA=="; };`)

	res, err = c.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "hmac-sha512", res.Document.Keys["rndc-key"].Algorithm)
	assert.Equal(t, uint64(2), c.Stats().Misses)
	assert.Equal(t, uint64(0), c.Stats().Hits)
}

func TestCache_ModTimeChangeInvalidates(t *testing.T) {
	dir := tempDir(t)
	path := writeConf(t, dir, "rndc.conf", keyConf)

	calls := 0
	c, err := New(4, func(p string) (rndcconf.Resolution, error) {
		calls++
		return rndcconf.Resolve(p)
	})
	require.NoError(t, err)

	_, err = c.Resolve(path)
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	_, err = c.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCache_DeletedFileIsNotServed(t *testing.T) {
	dir := tempDir(t)
	path := writeConf(t, dir, "rndc.conf", keyConf)

	c, err := New(4, nil)
	require.NoError(t, err)
	_, err = c.Resolve(path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	_, err = c.Resolve(path)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	assert.Equal(t, 0, c.Len(), "failed resolutions are dropped")
}

func TestCache_ErrorsNotCached(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	c, err := New(4, func(string) (rndcconf.Resolution, error) {
		calls++
		return rndcconf.Resolution{}, boom
	})
	require.NoError(t, err)

	for range 2 {
		_, err := c.Resolve("/etc/rndc.conf")
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestCache_CallerCannotMutateEntry(t *testing.T) {
	dir := tempDir(t)
	path := writeConf(t, dir, "rndc.conf", keyConf)

	c, err := New(4, nil)
	require.NoError(t, err)

	res, err := c.Resolve(path)
	require.NoError(t, err)
	delete(res.Document.Keys, "rndc-key")
	res.Files[0] = "/tampered"

	again, err := c.Resolve(path)
	require.NoError(t, err)
	assert.Contains(t, again.Document.Keys, "rndc-key")
	assert.Equal(t, path, again.Files[0])
}

func TestCache_EvictionAndPurge(t *testing.T) {
	dir := tempDir(t)
	a := writeConf(t, dir, "a.conf", keyConf)
	b := writeConf(t, dir, "b.conf", keyConf)

	c, err := New(1, nil)
	require.NoError(t, err)

	_, err = c.Resolve(a)
	require.NoError(t, err)
	_, err = c.Resolve(b)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, uint64(1), c.Stats().Evictions)

	c.Invalidate(b)
	assert.Equal(t, 0, c.Len())

	_, err = c.Resolve(a)
	require.NoError(t, err)
	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(3), c.Stats().Evictions)
}

func TestCache_Disabled(t *testing.T) {
	dir := tempDir(t)
	path := writeConf(t, dir, "rndc.conf", keyConf)

	c, err := New(0, nil)
	require.NoError(t, err)

	for range 3 {
		res, err := c.Resolve(path)
		require.NoError(t, err)
		assert.Contains(t, res.Document.Keys, "rndc-key")
	}
	c.Invalidate(path)
	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, Stats{Misses: 3}, c.Stats())
}

func TestNew_LRUError(t *testing.T) {
	orig := newLRU
	defer func() { newLRU = orig }()
	newLRU = func(int, func(string, entry)) (*lru.Cache[string, entry], error) {
		return nil, errors.New("cache creation error")
	}

	_, err := New(1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error creating credential cache")
}
