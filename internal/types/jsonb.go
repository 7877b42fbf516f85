package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is a string map persisted as JSONB
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(value interface{}) error {
	return scanJSONB(value, m)
}

// RevenueTargets maps YYYY-MM month keys to a revenue objective in cents
type RevenueTargets map[string]int64

func (t RevenueTargets) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	return json.Marshal(t)
}

func (t *RevenueTargets) Scan(value interface{}) error {
	return scanJSONB(value, t)
}

// StringList is a string slice persisted as JSONB
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	return scanJSONB(value, l)
}

func scanJSONB(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}
