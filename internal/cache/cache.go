// Package cache stores search responses so re-runs and repeated
// queries skip the paced network path.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory and disk layers.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from a search query.
func Key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "ldverify:v1:" + hex.EncodeToString(sum[:])
}
