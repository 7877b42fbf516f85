package integration

import (
	"time"

	"github.com/stayprice/stayprice/internal/types"
)

// Integration stores a tenant's connection to a PMS backend. Credentials
// are opaque per type; the adapter knows which keys it needs. Unique per
// (user_id, type).
type Integration struct {
	ID          string         `db:"id" json:"id"`
	UserID      string         `db:"user_id" json:"user_id"`
	Type        types.PMSType  `db:"type" json:"type"`
	Credentials types.Metadata `db:"credentials" json:"-"`
	ConnectedAt time.Time      `db:"connected_at" json:"connected_at"`
	LastSync    *time.Time     `db:"last_sync" json:"last_sync,omitempty"`

	types.BaseModel
}
