// Package cache stores pipeline results keyed by the normalized request
// hash. Entry lifetimes depend on the confidence class of the payload;
// entries past expiry behave as misses and are eligible for deletion.
package cache

import (
	"context"
	"time"

	"github.com/plateful/recipescout/internal/recipe"
)

// Entry is one cached payload: either validated records or a raw provider
// response (pre-validation), never both.
type Entry struct {
	Key       string          `json:"key"`
	Records   []recipe.Recipe `json:"records,omitempty"`
	Raw       []byte          `json:"raw,omitempty"`
	Class     recipe.Class    `json:"class"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// TTLTable maps a confidence class to an entry lifetime. The table is
// configuration; expiry is always computed from it at write time.
type TTLTable map[recipe.Class]time.Duration

// DefaultTTLs: corroborated data lives for weeks; raw provider responses
// are the shortest-lived since providers change faster than validated facts.
func DefaultTTLs() TTLTable {
	return TTLTable{
		recipe.ClassVerified: 14 * 24 * time.Hour,
		recipe.ClassHigh:     12 * time.Hour,
		recipe.ClassMedium:   8 * time.Hour,
		recipe.ClassLow:      4 * time.Hour,
		recipe.ClassRaw:      2 * time.Hour,
	}
}

// TTLFor falls back to the low-confidence lifetime for unknown classes.
func (t TTLTable) TTLFor(class recipe.Class) time.Duration {
	if d, ok := t[class]; ok && d > 0 {
		return d
	}
	if d, ok := t[recipe.ClassLow]; ok && d > 0 {
		return d
	}
	return 4 * time.Hour
}

// Store is the cache contract. Writes are atomic: a reader never observes a
// partially written entry. Sweep removes expired entries and reports how
// many were deleted; implementations with native expiry may make it a no-op.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Put(ctx context.Context, key string, records []recipe.Recipe, class recipe.Class) error
	PutRaw(ctx context.Context, key string, raw []byte) error
	Sweep(ctx context.Context) (int, error)

	// TouchSource records a successful extraction from a source URL;
	// LastSource reports when that last happened. This backs the
	// cache-aware freshness sub-score.
	TouchSource(ctx context.Context, url string) error
	LastSource(ctx context.Context, url string) (time.Time, bool)
}
