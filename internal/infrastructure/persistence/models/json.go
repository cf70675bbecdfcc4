package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// JSONDocument stores an opaque JSON value in a jsonb column. The bytes are
// written and read back verbatim so documents round-trip unchanged.
type JSONDocument []byte

// Value implements driver.Valuer. Empty documents are stored as NULL.
func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return string(d), nil
}

// Scan implements sql.Scanner.
func (d *JSONDocument) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = nil
	case []byte:
		buf := make([]byte, len(v))
		copy(buf, v)
		*d = buf
	case string:
		*d = JSONDocument(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONDocument", value)
	}
	return nil
}

// GormDataType tells GORM the column type when migrating.
func (JSONDocument) GormDataType() string {
	return "jsonb"
}

// MarshalJSON writes the stored bytes as-is.
func (d JSONDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON keeps a copy of the raw bytes.
func (d *JSONDocument) UnmarshalJSON(data []byte) error {
	if d == nil {
		return errors.New("JSONDocument: UnmarshalJSON on nil pointer")
	}
	*d = append((*d)[0:0], data...)
	return nil
}
