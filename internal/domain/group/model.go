package group

import (
	"github.com/stayprice/stayprice/internal/types"
)

// Group bundles comparable properties so the orchestrator can price the
// main property and mirror the result onto the others. Membership is owned
// by the group_properties join table; the property side is computed.
type Group struct {
	ID             string  `db:"id" json:"id"`
	OwnerID        string  `db:"owner_id" json:"owner_id"`
	Name           string  `db:"name" json:"name"`
	SyncPrices     bool    `db:"sync_prices" json:"sync_prices"`
	MainPropertyID *string `db:"main_property_id" json:"main_property_id,omitempty"`

	// PropertyIDs is populated from the join table on reads
	PropertyIDs []string `db:"-" json:"property_ids"`

	types.BaseModel
}

// TemplatePropertyID returns the property every new member must match:
// the main property while it is still a member, else the first surviving
// member.
func (g *Group) TemplatePropertyID() string {
	if g.MainPropertyID != nil {
		for _, id := range g.PropertyIDs {
			if id == *g.MainPropertyID {
				return id
			}
		}
	}
	if len(g.PropertyIDs) > 0 {
		return g.PropertyIDs[0]
	}
	return ""
}

// HasMember reports whether the property belongs to the group
func (g *Group) HasMember(propertyID string) bool {
	for _, id := range g.PropertyIDs {
		if id == propertyID {
			return true
		}
	}
	return false
}
