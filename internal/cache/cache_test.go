package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func set(c *Cache, key string, data []byte, ttl time.Duration) string {
	etag, _ := c.SetIfGen(key, data, ttl, c.Generation())
	return etag
}

func TestSetGet(t *testing.T) {
	c := New(true)
	etag := set(c, "standings:all", []byte(`[]`), time.Minute)

	data, got, ok := c.Get("standings:all")
	assert.True(t, ok)
	assert.Equal(t, []byte(`[]`), data)
	assert.Equal(t, etag, got)
	assert.Equal(t, ComputeETag([]byte(`[]`)), etag)
}

func TestExpiredEntryMisses(t *testing.T) {
	c := New(true)
	set(c, "k", []byte("v"), -time.Second)

	_, _, ok := c.Get("k")
	assert.False(t, ok)

	c.evict()
	assert.Equal(t, 0, c.Stats()["total_keys"])
}

func TestDisabledCache(t *testing.T) {
	c := New(false)
	etag := set(c, "k", []byte("v"), time.Minute)

	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.NotEmpty(t, etag)
	assert.Zero(t, c.Purge(""))
}

func TestPurgeByPrefix(t *testing.T) {
	c := New(true)
	set(c, PrefixStandings+"all", []byte("a"), time.Minute)
	set(c, PrefixPairings+"next", []byte("b"), time.Minute)
	set(c, "other", []byte("c"), time.Minute)

	assert.Equal(t, 1, c.Purge(PrefixStandings))
	_, _, ok := c.Get(PrefixStandings + "all")
	assert.False(t, ok)
	_, _, ok = c.Get(PrefixPairings + "next")
	assert.True(t, ok)

	assert.Equal(t, 2, c.Purge(""))
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("x"))

	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.False(t, CheckETagMatch("", etag))
	assert.False(t, CheckETagMatch(`W/"nope"`, etag))
}

func TestSetIfGenDropsSnapshotAfterPurge(t *testing.T) {
	c := New(true)
	gen := c.Generation()

	c.Purge(PrefixStandings)

	etag, stored := c.SetIfGen(PrefixStandings+"all", []byte(`[{"wins":0}]`), time.Minute, gen)
	assert.False(t, stored)
	assert.Equal(t, ComputeETag([]byte(`[{"wins":0}]`)), etag)
	_, _, ok := c.Get(PrefixStandings + "all")
	assert.False(t, ok)
}

func TestSetIfGenStoresWhenUnchanged(t *testing.T) {
	c := New(true)
	c.Purge("")
	gen := c.Generation()

	_, stored := c.SetIfGen(PrefixPairings+"next", []byte(`{}`), time.Minute, gen)
	assert.True(t, stored)
	_, _, ok := c.Get(PrefixPairings + "next")
	assert.True(t, ok)
}

func TestPurgeAdvancesGeneration(t *testing.T) {
	c := New(true)
	before := c.Generation()
	c.Purge(PrefixPairings)
	c.Purge(PrefixStandings)
	assert.Equal(t, before+2, c.Generation())
}
