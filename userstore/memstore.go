package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
)

type (
	// memStore groups records in buckets keyed by the hash of their id.
	// Ids sharing a hash live in the same bucket, so a collision never
	// replaces another user.
	memStore struct {
		sync.Mutex
		cache *bigcache.BigCache
		hash  func(string) uint64
	}

	// bucketHasher maps a bucket key back to the hash it was built from,
	// keeping bigcache from hashing (and colliding) a second time.
	bucketHasher struct{}
)

// entries never expire, a process restart is the only way to lose them
const memLifeWindow = 100 * 365 * 24 * time.Hour

func (bucketHasher) Sum64(key string) uint64 {
	v, _ := strconv.ParseUint(key, 16, 64)
	return v
}

// NewMemory returns a Store that keeps everything in process memory.
// Useful for development and tests.
func NewMemory() (Store, error) {
	return newMemory(xxhash.Sum64String)
}

func newMemory(hash func(string) uint64) (*memStore, error) {
	cfg := bigcache.DefaultConfig(memLifeWindow)
	cfg.CleanWindow = 0
	cfg.Verbose = false
	cfg.Hasher = bucketHasher{}
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to allocate memory store, cause %w", err)
	}
	return &memStore{
		cache: cache,
		hash:  hash,
	}, nil
}

func (m *memStore) Create(ctx context.Context, rec Record) (Record, error) {
	m.Lock()
	defer m.Unlock()
	key := m.bucketKey(rec.ID)
	bucket, err := m.bucket(key)
	if err != nil {
		return Record{}, fmt.Errorf("unable to check user %v, cause %w", rec.ID, err)
	}
	for _, r := range bucket {
		if r.ID == rec.ID {
			return Record{}, Duplicate{ID: rec.ID}
		}
	}
	err = m.save(key, append(bucket, rec))
	if err != nil {
		return Record{}, fmt.Errorf("unable to store user %v, cause %w", rec.ID, err)
	}
	return rec, nil
}

func (m *memStore) Find(ctx context.Context, id string) (Record, error) {
	bucket, err := m.bucket(m.bucketKey(id))
	if err != nil {
		return Record{}, fmt.Errorf("unable to load user %v, cause %w", id, err)
	}
	for _, r := range bucket {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, NotFound{ID: id}
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.Lock()
	defer m.Unlock()
	key := m.bucketKey(id)
	bucket, err := m.bucket(key)
	if err != nil {
		return fmt.Errorf("unable to delete user %v, cause %w", id, err)
	}
	for i, r := range bucket {
		if r.ID != id {
			continue
		}
		rest := append(bucket[:i:i], bucket[i+1:]...)
		if len(rest) == 0 {
			err = m.cache.Delete(key)
		} else {
			err = m.save(key, rest)
		}
		if err != nil {
			return fmt.Errorf("unable to delete user %v, cause %w", id, err)
		}
		return nil
	}
	return NotFound{ID: id}
}

func (m *memStore) Close() error {
	return m.cache.Close()
}

func (m *memStore) bucketKey(id string) string {
	return strconv.FormatUint(m.hash(id), 16)
}

func (m *memStore) bucket(key string) ([]Record, error) {
	buf, err := m.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var bucket []Record
	err = json.Unmarshal(buf, &bucket)
	return bucket, err
}

func (m *memStore) save(key string, bucket []Record) error {
	buf, err := json.Marshal(bucket)
	if err != nil {
		return err
	}
	return m.cache.Set(key, buf)
}
