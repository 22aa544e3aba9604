package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is a free-form string annotation map stored as a JSONB column
type Metadata map[string]string

// Scan implements sql.Scanner. A NULL column scans to an empty map so
// callers never see a nil Metadata coming out of the database.
func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = make(Metadata)
		return nil
	}

	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("metadata: cannot scan %T", src)
	}

	decoded := make(Metadata)
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*m = decoded
	return nil
}

// Value implements driver.Valuer, writing nil maps as the empty JSON object
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(make(Metadata))
	}
	return json.Marshal(m)
}
