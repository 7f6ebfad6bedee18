package dbx

import (
	"database/sql"
	"fmt"
	"time"
)

// NullString maps "" to SQL NULL.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NullTime maps a nil pointer to SQL NULL.
func NullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// TimePtr is the inverse of NullTime. Dates come back in UTC.
func TimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// Text scans a nullable text column into *S, mapping NULL to "".
type Text struct{ S *string }

func (t Text) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t.S = ""
	case string:
		*t.S = v
	case []byte:
		*t.S = string(v)
	default:
		return fmt.Errorf("dbx.Text: unsupported type %T", src)
	}
	return nil
}

// Date scans a nullable date/timestamp column into *T, mapping NULL to nil.
type Date struct{ T **time.Time }

func (d Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.T = nil
	case time.Time:
		u := v.UTC()
		*d.T = &u
	default:
		return fmt.Errorf("dbx.Date: unsupported type %T", src)
	}
	return nil
}
