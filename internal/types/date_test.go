package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2026-08-24")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), parsed)

	_, err = ParseDate("24/08/2026")
	assert.Error(t, err)

	_, err = ParseDate("2026-13-01")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	assert.NoError(t, err)

	// Late evening in Paris is already the next UTC-equivalent day only
	// when the UTC clock says so
	local := time.Date(2026, 8, 24, 23, 30, 0, 0, paris)
	assert.Equal(t, "2026-08-24", FormatDate(local))
}

func TestTruncateToDay(t *testing.T) {
	in := time.Date(2026, 8, 24, 17, 45, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), TruncateToDay(in))
}

func TestIsValidMonthKey(t *testing.T) {
	assert.True(t, IsValidMonthKey("2026-08"))
	assert.False(t, IsValidMonthKey("2026-8"))
	assert.False(t, IsValidMonthKey("2026-08-24"))
	assert.False(t, IsValidMonthKey("aout"))
}
