package database

import (
	"fmt"
	"time"
)

// SQLite hands back TIMESTAMP columns as time.Time or as text depending on
// how the value was written; Postgres always returns time.Time.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timestamp scans a nullable timestamp column from either driver.
type timestamp struct {
	time  time.Time
	valid bool
}

// Scan implements sql.Scanner.
func (ts *timestamp) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		ts.time, ts.valid = time.Time{}, false
		return nil
	case time.Time:
		ts.time, ts.valid = v.UTC(), true
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", value)
	}
}

func (ts *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.time, ts.valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as timestamp", s)
}

func (ts timestamp) ptr() *time.Time {
	if !ts.valid {
		return nil
	}
	t := ts.time
	return &t
}
