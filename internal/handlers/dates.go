package handlers

import (
	"bytes"
	"encoding/json"
	"time"

	"taskdesk-api/internal/apperr"
)

func parseDateFlexible(dateStr string) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano, // full timestamp from the date picker
		"2006-01-02",     // ISO date
		"2 Jan 2006",     // e.g., 30 Oct 2025
		"02 Jan 2006",    // zero-padded day
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, ok := parseDateFlexible(*raw)
	if !ok {
		return nil, apperr.Invalid("Invalid due date")
	}
	return &t, nil
}

// optionalDate tells an absent field apart from an explicit null, which
// clears the stored date.
type optionalDate struct {
	Set   bool
	Null  bool
	Value string
}

func (d *optionalDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		d.Null = true
		return nil
	}
	return json.Unmarshal(b, &d.Value)
}
