package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is one record of a remote collection: sheet column header -> cell value.
// The remote store performs no schema enforcement, so readers coerce.
type Row map[string]any

// Num returns the field as a number. Missing, empty or non-numeric values are 0.
func (r Row) Num(field string) float64 {
	v, ok := r[field]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	}
	return 0
}

// NumOr returns the field as a number, or the fallback field when the first
// one is absent or empty.
func (r Row) NumOr(field, fallback string) float64 {
	if r.Has(field) {
		return r.Num(field)
	}
	return r.Num(fallback)
}

// Str returns the field as a string. Numbers are formatted without exponent.
func (r Row) Str(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

// Has reports whether the field is present with a non-empty value.
func (r Row) Has(field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Time parses the field as a timestamp. The second result is false when the
// field is missing or unparseable.
func (r Row) Time(field string) (time.Time, bool) {
	return ParseDateTime(r.Str(field))
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r overlaid with the fields of other.
func (r Row) Merge(other Row) Row {
	out := r.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// DateTimeLayout is the timestamp format the sheets store.
const DateTimeLayout = "2006-01-02 15:04:05"

var dateTimeLayouts = []string{
	DateTimeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FormatDateTime renders t in the sheet timestamp format.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// ParseDateTime accepts the sheet format and the ISO variants the remote
// endpoints echo back.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
