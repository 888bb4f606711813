package cache

import (
	"path/filepath"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	assert := assert_.New(t)
	path := filepath.Join(t.TempDir(), "cache", "nested", "resolutions.db")
	c, err := Open(path, 24*time.Hour, zap.NewNop().Sugar())
	assert.NoError(err, "a fresh working directory must not need manual setup")
	assert.NoError(c.Close())
}

func TestCacheRoundTrip(t *testing.T) {
	assert := assert_.New(t)
	c := newTestCache(t, 24*time.Hour)

	payload := []byte(`{"title":"a video","videos":[{"id":"137+bestaudio"}]}`)
	assert.NoError(c.Put("youtube", "https://www.youtube.com/watch?v=abc", payload))

	got, ok := c.Get("youtube", "https://www.youtube.com/watch?v=abc")
	assert.True(ok)
	assert.Equal(payload, got)

	_, ok = c.Get("youtube", "https://www.youtube.com/watch?v=other")
	assert.False(ok)
	_, ok = c.Get("tiktok", "https://www.youtube.com/watch?v=abc")
	assert.False(ok, "key must include the source")
}

func TestCacheExpiry(t *testing.T) {
	assert := assert_.New(t)
	c := newTestCache(t, time.Hour)

	base := time.Unix(1700000000, 0)
	c.now = func() time.Time { return base }
	assert.NoError(c.Put("reddit", "https://www.reddit.com/r/x/1", []byte(`{}`)))

	c.now = func() time.Time { return base.Add(59 * time.Minute) }
	_, ok := c.Get("reddit", "https://www.reddit.com/r/x/1")
	assert.True(ok)

	c.now = func() time.Time { return base.Add(61 * time.Minute) }
	_, ok = c.Get("reddit", "https://www.reddit.com/r/x/1")
	assert.False(ok, "expired entry must read as a miss")

	// Expiry deletes the row, so a later read inside the window still misses.
	c.now = func() time.Time { return base }
	_, ok = c.Get("reddit", "https://www.reddit.com/r/x/1")
	assert.False(ok)
}

func TestCacheCorruptPayloadPurged(t *testing.T) {
	assert := assert_.New(t)
	c := newTestCache(t, time.Hour)

	assert.NoError(c.Put("twitter", "https://twitter.com/u/status/1", []byte(`not json`)))
	_, ok := c.Get("twitter", "https://twitter.com/u/status/1")
	assert.False(ok)

	stats, err := c.Stats()
	assert.NoError(err)
	assert.Zero(stats.Entries, "corrupt entry must be purged, not retained")
}

func TestCacheAccessAccounting(t *testing.T) {
	assert := assert_.New(t)
	c := newTestCache(t, time.Hour)

	assert.NoError(c.Put("youtube", "https://www.youtube.com/watch?v=hot", []byte(`{}`)))
	assert.NoError(c.Put("youtube", "https://www.youtube.com/watch?v=cold", []byte(`{}`)))
	for i := 0; i < 3; i++ {
		_, ok := c.Get("youtube", "https://www.youtube.com/watch?v=hot")
		assert.True(ok)
	}

	stats, err := c.Stats()
	assert.NoError(err)
	assert.Equal(2, stats.Entries)
	assert.Equal(2, stats.PerSource["youtube"])
	assert.Equal("https://www.youtube.com/watch?v=hot", stats.TopAccessed[0].URL)
	assert.Equal(int64(4), stats.TopAccessed[0].AccessCount)
}

func TestCacheSweepAndPurge(t *testing.T) {
	assert := assert_.New(t)
	c := newTestCache(t, time.Hour)

	base := time.Unix(1700000000, 0)
	c.now = func() time.Time { return base }
	assert.NoError(c.Put("instagram", "https://www.instagram.com/p/old/", []byte(`{}`)))

	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	assert.NoError(c.Put("instagram", "https://www.instagram.com/p/new/", []byte(`{}`)))

	deleted, err := c.Sweep()
	assert.NoError(err)
	assert.Equal(1, deleted)

	stats, err := c.Stats()
	assert.NoError(err)
	assert.Equal(1, stats.Entries)

	assert.NoError(c.Purge())
	stats, err = c.Stats()
	assert.NoError(err)
	assert.Zero(stats.Entries)
}
