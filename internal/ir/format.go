package ir

import (
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout     = "1/2/2006"
	dateTimeLayout = "1/2/2006 3:04:05 PM"
)

// Format returns the canonical text form of a value.
//
//	String  verbatim
//	Int     base 10
//	Float   shortest representation that round-trips
//	Bool    "true" / "false"
//	Date    M/d/yyyy, or M/d/yyyy h:mm:ss AM|PM when the time is not midnight
//	Null    ""
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Date:
		t := val.Time()
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(dateLayout)
		}
		return t.Format(dateTimeLayout)
	case Object:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(Format(val[k]))
		}
		sb.WriteByte('}')
		return sb.String()
	default:
		return ""
	}
}

// dateInputLayouts are tried in order by ParseDate.
var dateInputLayouts = []string{
	dateLayout,
	dateTimeLayout,
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses the canonical date form and common ISO variants.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range dateInputLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Date(t.UTC()), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return Date{}, firstErr
}

// oleEpoch is day zero of spreadsheet serial dates.
var oleEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// FromSerial converts a spreadsheet serial date (days since 1899-12-30,
// fractional part is time of day) into a Date.
func FromSerial(serial float64) Date {
	days := int(serial)
	frac := serial - float64(days)
	t := oleEpoch.AddDate(0, 0, days).Add(time.Duration(frac * float64(24*time.Hour)).Round(time.Second))
	return Date(t)
}
