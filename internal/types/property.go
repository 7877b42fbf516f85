package types

// PropertyStatus is the lifecycle state of a property
type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusArchived PropertyStatus = "archived"
	PropertyStatusError    PropertyStatus = "error"
)

// CanTransitionTo validates the property status state machine:
// active <-> archived, active <-> error, archived <-> error
func (s PropertyStatus) CanTransitionTo(target PropertyStatus) bool {
	if s == target {
		return false
	}
	switch s {
	case PropertyStatusActive, PropertyStatusArchived, PropertyStatusError:
		switch target {
		case PropertyStatusActive, PropertyStatusArchived, PropertyStatusError:
			return true
		}
	}
	return false
}

// PricingStrategy modulates how aggressively the calendar builder prices
// near the booking window
type PricingStrategy string

const (
	PricingStrategyPrudent   PricingStrategy = "Prudent"
	PricingStrategyBalanced  PricingStrategy = "Équilibré"
	PricingStrategyAggressif PricingStrategy = "Agressif"
)

func (s PricingStrategy) Validate() bool {
	switch s {
	case PricingStrategyPrudent, PricingStrategyBalanced, PricingStrategyAggressif:
		return true
	}
	return false
}

// Multiplier returns the base price factor applied by the deterministic
// pricing engine
func (s PricingStrategy) Multiplier() float64 {
	switch s {
	case PricingStrategyPrudent:
		return 0.95
	case PricingStrategyAggressif:
		return 1.08
	default:
		return 1.0
	}
}
