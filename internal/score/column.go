package score

import (
	"database/sql/driver"
	"fmt"
)

// Column adapts a Value to a nullable text column. NULL maps to a nil Score.
type Column struct {
	Score Value
}

// Scan implements sql.Scanner.
func (c *Column) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		c.Score = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("score: scan: unsupported type %T", src)
	}

	v, err := Decode(s)
	if err != nil {
		return err
	}

	c.Score = v
	return nil
}

// Value implements driver.Valuer.
func (c Column) Value() (driver.Value, error) {
	if c.Score == nil {
		return nil, nil
	}
	return Encode(c.Score), nil
}
