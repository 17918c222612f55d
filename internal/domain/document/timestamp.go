package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a point in time as carried in the interchange format.
// It is written as an RFC 3339 string. It is read from a date string in
// one of timestampLayouts or from a number of milliseconds since the Unix
// epoch, given as a JSON number or a string.
type Timestamp struct {
	time.Time
}

// timestampLayouts are tried in order. Layouts without a zone are read as
// UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// NewTimestamp returns a Timestamp for t normalized to UTC.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t.UTC()}
}

// Equal reports whether both timestamps denote the same instant.
func (t Timestamp) Equal(other Timestamp) bool {
	return t.Time.Equal(other.Time)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		parsed, err := parseMillis(string(data))
		if err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}
		t.Time = parsed
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	if parsed, err := parseMillis(s); err == nil {
		t.Time = parsed
		return nil
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func parseMillis(s string) (time.Time, error) {
	millis, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(millis) || math.IsInf(millis, 0) {
		return time.Time{}, fmt.Errorf("%s is not a finite number", s)
	}
	return time.UnixMilli(int64(millis)).UTC(), nil
}

// clone returns a copy of the pointer target, or nil
func (t *Timestamp) clone() *Timestamp {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
