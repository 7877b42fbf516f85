package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertyStatusTransitions(t *testing.T) {
	assert.True(t, PropertyStatusActive.CanTransitionTo(PropertyStatusArchived))
	assert.True(t, PropertyStatusArchived.CanTransitionTo(PropertyStatusActive))
	assert.True(t, PropertyStatusActive.CanTransitionTo(PropertyStatusError))
	assert.True(t, PropertyStatusError.CanTransitionTo(PropertyStatusActive))

	// Self transitions are rejected
	assert.False(t, PropertyStatusActive.CanTransitionTo(PropertyStatusActive))

	// Unknown states never transition
	assert.False(t, PropertyStatus("draft").CanTransitionTo(PropertyStatusActive))
	assert.False(t, PropertyStatusActive.CanTransitionTo(PropertyStatus("draft")))
}

func TestPricingStrategyMultiplier(t *testing.T) {
	assert.Equal(t, 0.95, PricingStrategyPrudent.Multiplier())
	assert.Equal(t, 1.0, PricingStrategyBalanced.Multiplier())
	assert.Equal(t, 1.08, PricingStrategyAggressif.Multiplier())
}

func TestPricingStrategyValidate(t *testing.T) {
	assert.True(t, PricingStrategyBalanced.Validate())
	assert.False(t, PricingStrategy("YOLO").Validate())
}
