package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex prop_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_USER           = "usr"
	UUID_PREFIX_PROPERTY       = "prop"
	UUID_PREFIX_GROUP          = "grp"
	UUID_PREFIX_BOOKING        = "bkg"
	UUID_PREFIX_PRICE_OVERRIDE = "ovr"
	UUID_PREFIX_PROPERTY_LOG   = "plog"
	UUID_PREFIX_INTEGRATION    = "intg"
)
