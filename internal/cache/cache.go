// Package cache is the content-addressed TTL store for serialized
// resolution results, keyed by (source, normalized URL). Entries are
// immutable payload blobs; expiry is enforced lazily on read.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var buckets = struct {
	Metadata    []byte
	Resolutions []byte
}{
	Metadata:    []byte("__metadata__"),
	Resolutions: []byte("resolutions"),
}

var metadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

// Key derives the stable cache key for a (source, normalized URL) pair.
func Key(source, normalizedURL string) string {
	sum := sha256.Sum256([]byte(source + "\n" + normalizedURL))
	return hex.EncodeToString(sum[:8])
}

type entry struct {
	Source      string          `json:"source"`
	URL         string          `json:"url"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   int64           `json:"created_at"`
	AccessedAt  int64           `json:"accessed_at"`
	AccessCount int64           `json:"access_count"`
}

type Cache struct {
	db   *bbolt.DB
	ttl  time.Duration
	log  *zap.SugaredLogger
	path string
	now  func() time.Time
}

// Open opens (or creates) the cache database at path with a fixed TTL
// applied uniformly to every entry.
func Open(path string, ttl time.Duration, log *zap.SugaredLogger) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		metadata, err := tx.CreateBucketIfNotExists(buckets.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(buckets.Resolutions); err != nil {
			return err
		}
		versionBytes, err := json.Marshal(currentVersion)
		if err != nil {
			return err
		}
		return metadata.Put(metadataKeys.Version, versionBytes)
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{
		db:   db,
		ttl:  ttl,
		log:  log.Named("cache"),
		path: path,
		now:  time.Now,
	}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached payload for (source, url) and refreshes its access
// stats. It returns (nil, false) when the entry is absent, expired (expired
// entries are deleted on read) or corrupt (corrupt entries are purged).
func (c *Cache) Get(source, url string) ([]byte, bool) {
	key := []byte(Key(source, url))
	var payload []byte
	err := c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(buckets.Resolutions)
		data := bucket.Get(key)
		if data == nil {
			return nil
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil || !json.Valid(e.Payload) {
			c.log.Warnw("purging corrupt cache entry", "key", string(key))
			return bucket.Delete(key)
		}
		now := c.now()
		if now.Unix()-e.CreatedAt > int64(c.ttl/time.Second) {
			return bucket.Delete(key)
		}
		e.AccessedAt = now.Unix()
		e.AccessCount++
		updated, err := json.Marshal(&e)
		if err != nil {
			return err
		}
		if err := bucket.Put(key, updated); err != nil {
			return err
		}
		payload = append([]byte(nil), e.Payload...)
		return nil
	})
	if err != nil {
		c.log.Warnw("cache read failed", "key", string(key), "error", err)
		return nil, false
	}
	if payload == nil {
		return nil, false
	}
	return payload, true
}

// Put stores payload for (source, url), overwriting unconditionally.
// Last-writer-wins is fine: entries are immutable blobs keyed by content.
func (c *Cache) Put(source, url string, payload []byte) error {
	now := c.now().Unix()
	e := entry{
		Source:      source,
		URL:         url,
		Payload:     json.RawMessage(payload),
		CreatedAt:   now,
		AccessedAt:  now,
		AccessCount: 1,
	}
	data, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(buckets.Resolutions).Put([]byte(Key(source, url)), data)
	})
}

// AccessStat is one row of the top-accessed report.
type AccessStat struct {
	Source      string `json:"source"`
	URL         string `json:"url"`
	AccessCount int64  `json:"access_count"`
}

type Stats struct {
	Entries     int            `json:"entries"`
	PerSource   map[string]int `json:"per_source"`
	TopAccessed []AccessStat   `json:"top_accessed"`
	SizeBytes   int64          `json:"size_bytes"`
	TTL         time.Duration  `json:"ttl"`
}

// Stats reports entry count, per-source counts, the five most accessed
// entries, and on-disk size.
func (c *Cache) Stats() (Stats, error) {
	stats := Stats{PerSource: map[string]int{}, TTL: c.ttl}
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(buckets.Resolutions).ForEach(func(_, v []byte) error {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				return nil // corrupt entries are purged on read, skip here
			}
			stats.Entries++
			stats.PerSource[e.Source]++
			stats.TopAccessed = append(stats.TopAccessed, AccessStat{
				Source:      e.Source,
				URL:         e.URL,
				AccessCount: e.AccessCount,
			})
			return nil
		})
	})
	if err != nil {
		return Stats{}, err
	}
	sort.Slice(stats.TopAccessed, func(i, j int) bool {
		return stats.TopAccessed[i].AccessCount > stats.TopAccessed[j].AccessCount
	})
	if len(stats.TopAccessed) > 5 {
		stats.TopAccessed = stats.TopAccessed[:5]
	}
	if info, err := os.Stat(c.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

// Sweep deletes every expired entry, reclaiming space. The cache works
// without it; expiry is otherwise enforced lazily on read.
func (c *Cache) Sweep() (int, error) {
	cutoff := c.now().Unix() - int64(c.ttl/time.Second)
	deleted := 0
	err := c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(buckets.Resolutions)
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var e entry
			if err := json.Unmarshal(v, &e); err == nil && e.CreatedAt >= cutoff {
				continue
			}
			if err := cursor.Delete(); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		c.log.Infow("swept expired cache entries", "deleted", deleted)
	}
	return deleted, nil
}

// Purge deletes every entry.
func (c *Cache) Purge() error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(buckets.Resolutions); err != nil {
			return err
		}
		_, err := tx.CreateBucket(buckets.Resolutions)
		return err
	})
}
