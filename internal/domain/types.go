package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MapOfAny is persisted as JSON in the database
type MapOfAny map[string]any

// Scan implements the sql.Scanner interface
func (m *MapOfAny) Scan(val interface{}) error {
	var data []byte

	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		// the driver reuses the same buffer for the next row
		data = bytes.Clone(v)
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("type assertion to []byte failed for MapOfAny")
	}

	return json.Unmarshal(data, m)
}

// Value implements the driver.Valuer interface
func (m MapOfAny) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
