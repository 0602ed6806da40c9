package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// flexID accepts "abc" or the Extended JSON form {"$oid": "abc"}.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			OID *string `json:"$oid"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		if obj.OID == nil {
			return fmt.Errorf("expected string or {\"$oid\": ...}")
		}
		*f = flexID(*obj.OID)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected string or {\"$oid\": ...}")
	}
	*f = flexID(s)
	return nil
}

// flexTime accepts an RFC 3339 string, epoch milliseconds, or
// {"$date": <either>} including the canonical {"$date": {"$numberLong": "..."}}.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		f.Time = time.Time{}
		return nil
	}
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Date json.RawMessage `json:"$date"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		if len(obj.Date) == 0 {
			var nl struct {
				NumberLong *string `json:"$numberLong"`
			}
			if err := json.Unmarshal(b, &nl); err == nil && nl.NumberLong != nil {
				return f.fromMillisString(*nl.NumberLong)
			}
			return fmt.Errorf("expected date or {\"$date\": ...}")
		}
		return f.UnmarshalJSON(obj.Date)
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		t, err := parseTimeString(s)
		if err != nil {
			return err
		}
		f.Time = t
		return nil
	}
	return f.fromMillisString(string(b))
}

func (f *flexTime) fromMillisString(s string) error {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid epoch milliseconds %q", s)
	}
	f.Time = time.UnixMilli(ms).UTC()
	return nil
}

func parseTimeString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
