package propertylog

import (
	"encoding/json"
	"time"
)

// PropertyLog is one append-only audit row for a property mutation
type PropertyLog struct {
	ID         string          `db:"id" json:"id"`
	PropertyID string          `db:"property_id" json:"property_id"`
	UserID     string          `db:"user_id" json:"user_id"`
	UserEmail  string          `db:"user_email" json:"user_email"`
	Action     string          `db:"action" json:"action"`
	Changes    json.RawMessage `db:"changes" json:"changes"`
	Timestamp  time.Time       `db:"timestamp" json:"timestamp"`
}
