package syscache

import (
	"encoding/json"
	"time"
)

// MaxAge is the staleness horizon for cache entries; consumers treat
// anything older as stale
const MaxAge = 24 * time.Hour

// Entry is a persisted background-job result keyed by a well-known string,
// e.g. market features per city
type Entry struct {
	Key       string          `db:"key" json:"key"`
	Data      json.RawMessage `db:"data" json:"data"`
	Language  *string         `db:"language" json:"language,omitempty"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// IsStale reports whether the entry is older than the staleness horizon
func (e *Entry) IsStale(now time.Time) bool {
	return now.Sub(e.UpdatedAt) > MaxAge
}
