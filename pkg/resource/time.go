package resource

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// FormatTime renders t as an ISO-8601 UTC timestamp with millisecond precision.
// The zero time renders as an empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strfmt.DateTime(t.UTC()).String()
}

// NormalizeTime re-renders an ISO-8601 string through FormatTime.
// Values that do not parse are returned unchanged.
func NormalizeTime(s string) string {
	if s == "" {
		return ""
	}
	dt, err := strfmt.ParseDateTime(s)
	if err != nil {
		return s
	}
	return FormatTime(time.Time(dt))
}
