package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every table the repositories query must be created and torn down by the
// initial migration
func TestInitMigrationCoversAllTables(t *testing.T) {
	data, err := FS.ReadFile("00001_init.sql")
	require.NoError(t, err)
	sql := string(data)

	assert.Contains(t, sql, "-- +goose Up")
	assert.Contains(t, sql, "-- +goose Down")

	tables := []string{
		"tenants", "properties", "groups", "group_properties", "bookings",
		"price_overrides", "integrations", "property_logs", "system_cache",
		"used_listing_ids",
	}
	for _, table := range tables {
		assert.Contains(t, sql, "CREATE TABLE "+table+" (", table)
		assert.True(t, strings.Contains(sql, "DROP TABLE "+table+";"), table)
	}
}
