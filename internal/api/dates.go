package api

import (
	"strings"
	"time"
)

const dueDateFormatMessage = "Invalid due_date format. Use ISO format (e.g., 2024-12-31T23:59:59)"

// Zoned layouts keep their offset; the rest are read as UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseDueDate parses an ISO 8601 date or date-time and normalizes it to UTC.
func parseDueDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, NewMalformedInputError("due_date", dueDateFormatMessage)
}
