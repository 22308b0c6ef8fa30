// Package cache defines the pluggable key->record store the upload state
// machine consults to resume uploads across process restarts (spec §4.4),
// plus a default in-memory implementation.
package cache

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no record is stored for a key. It is
// not a fatal condition anywhere in tuscore: a miss just means "discover the
// upload from the server instead".
var ErrNotFound = errors.New("cache: record not found")

// Record is what the state machine remembers about an upload between calls:
// the last acknowledged offset, the server key the client key resolved to, and
// any metadata/expiry the server returned. The Client still issues a HEAD
// before resuming; it takes only the server key from a cached Record.
type Record struct {
	Offset    int64
	ServerKey string
	Metadata  map[string]string
	Expires   *time.Time
}

// Cache is the pluggable persistence contract. A successful Put must be
// visible to the next Get in the same process; no durability guarantee beyond
// that is required (spec §4.4).
type Cache interface {
	Get(key string) (Record, error)
	Put(key string, rec Record) error
	Delete(key string) error
}
