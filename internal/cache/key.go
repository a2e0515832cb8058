package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/plateful/recipescout/internal/recipe"
)

// Key returns the stable hash of a request. The request is normalized first
// (sorted tag sets, lower-cased strings, clamped count) so semantically
// identical requests collide regardless of input ordering or casing.
func Key(req recipe.Request) string {
	norm := req.Normalized()
	// Struct field order is fixed, so the JSON encoding is deterministic.
	b, _ := json.Marshal(norm)
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// SourceKey hashes a source URL for the per-source freshness log.
func SourceKey(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}
