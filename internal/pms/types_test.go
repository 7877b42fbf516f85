package pms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesceRates(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, CoalesceRates(nil))
	})

	t.Run("single update", func(t *testing.T) {
		runs := CoalesceRates([]RateUpdate{{Date: "2026-08-24", Price: 95}})
		assert.Equal(t, []RateRun{{Dates: []string{"2026-08-24"}, Price: 95}}, runs)
	})

	t.Run("consecutive equal prices merge", func(t *testing.T) {
		runs := CoalesceRates([]RateUpdate{
			{Date: "2026-08-24", Price: 95},
			{Date: "2026-08-25", Price: 95},
			{Date: "2026-08-26", Price: 119},
			{Date: "2026-08-27", Price: 119},
			{Date: "2026-08-28", Price: 95},
		})
		assert.Equal(t, []RateRun{
			{Dates: []string{"2026-08-24", "2026-08-25"}, Price: 95},
			{Dates: []string{"2026-08-26", "2026-08-27"}, Price: 119},
			{Dates: []string{"2026-08-28"}, Price: 95},
		}, runs)
	})

	t.Run("equal prices split by a gap stay split", func(t *testing.T) {
		runs := CoalesceRates([]RateUpdate{
			{Date: "2026-08-24", Price: 95},
			{Date: "2026-08-25", Price: 99},
			{Date: "2026-08-26", Price: 95},
		})
		assert.Len(t, runs, 3)
	})
}
