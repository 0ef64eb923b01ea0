package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"albion-trader/internal/albion"
)

// ErrMalformedTimestamp means a quote date was present but unparseable.
// The sentinel "never seen" date is not an error.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// The price service emits zone-less UTC timestamps; RFC 3339 is accepted too.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// ParseTimestamp parses an upstream date. known is false for the empty and sentinel dates.
func ParseTimestamp(s string) (t time.Time, known bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, albion.SentinelDate) {
		return time.Time{}, false, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() <= 1 {
				return time.Time{}, false, nil
			}
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// TimeAgo renders the age of date relative to now: "N/A" for unknown dates,
// "{m}m ago" under an hour, "{h}h {m}m ago" otherwise. Future dates read as "0m ago".
func TimeAgo(date string, now time.Time) (string, error) {
	t, known, err := ParseTimestamp(date)
	if err != nil {
		return "", err
	}
	if !known {
		return "N/A", nil
	}
	minutes := int(now.Sub(t) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes), nil
	}
	return fmt.Sprintf("%dh %dm ago", minutes/60, minutes%60), nil
}
