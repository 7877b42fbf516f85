package priceoverride

import (
	"time"

	"github.com/stayprice/stayprice/internal/types"
)

// PriceOverride is one priced day of a property's calendar. Rows with
// IsLocked=true are immutable to automated writers; only manual edits may
// change them.
type PriceOverride struct {
	ID         string    `db:"id" json:"id"`
	PropertyID string    `db:"property_id" json:"property_id"`
	Date       time.Time `db:"date" json:"date"`
	Price      int64     `db:"price" json:"price"`
	IsLocked   bool      `db:"is_locked" json:"is_locked"`
	Reason     string    `db:"reason" json:"reason"`

	types.BaseModel
}

// DateKey returns the canonical YYYY-MM-DD key of the override
func (o *PriceOverride) DateKey() string {
	return types.FormatDate(o.Date)
}
