package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores fetched source bodies between cycles
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

// Key derives a cache key from a source URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "strata:body:v1:" + hex.EncodeToString(hash[:])
}
