package cache

import (
	"time"

	"github.com/bluele/gcache"
	"github.com/pkg/errors"
)

// memory is the default Cache, an LRU over github.com/bluele/gcache -- the
// same library and eviction policy cs3org/reva's thumbnail LRU cache wraps
// (internal/http/services/thumbnails/cache/lru). Records carrying an Expires
// time are stored with that as their TTL; records without one live until
// evicted by the LRU policy.
type memory struct {
	gc gcache.Cache
}

// NewMemory returns a Cache backed by an in-process LRU holding at most
// maxEntries records.
func NewMemory(maxEntries int) Cache {
	return &memory{gc: gcache.New(maxEntries).LRU().Build()}
}

func (m *memory) Get(key string) (Record, error) {
	v, err := m.gc.Get(key)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return Record{}, ErrNotFound
		}
		return Record{}, errors.Wrap(err, "cache: get")
	}
	rec, ok := v.(Record)
	if !ok {
		return Record{}, errors.Errorf("cache: value stored for %q is not a Record", key)
	}
	return rec, nil
}

func (m *memory) Put(key string, rec Record) error {
	if rec.Expires != nil {
		ttl := time.Until(*rec.Expires)
		if ttl <= 0 {
			m.gc.Remove(key)
			return nil
		}
		if err := m.gc.SetWithExpire(key, rec, ttl); err != nil {
			return errors.Wrap(err, "cache: put")
		}
		return nil
	}
	if err := m.gc.Set(key, rec); err != nil {
		return errors.Wrap(err, "cache: put")
	}
	return nil
}

func (m *memory) Delete(key string) error {
	m.gc.Remove(key)
	return nil
}
