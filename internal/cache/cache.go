// Package cache memoizes reviewer verdicts so repeated identical citations
// in a long batch do not re-bill the reasoning service.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from its identifying parts: citation text, the
// shortlist rule ids, and the prompt mode. A strict-mode retry therefore
// never reads a stale first answer.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return "ruleproof:v1:" + hex.EncodeToString(hash[:])
}
