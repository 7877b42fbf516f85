package usedlisting

import (
	"time"
)

// UsedListing records that an external PMS listing id has been claimed by
// a paying account. A listing id is claimed at most once globally; this is
// the free-trial abuse guard.
type UsedListing struct {
	ListingID string    `db:"listing_id" json:"listing_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Source    string    `db:"source" json:"source"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
