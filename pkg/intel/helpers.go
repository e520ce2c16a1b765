package intel

import (
	"strconv"
	"strings"
	"time"
)

// caps for the unified item's display text
const (
	titleMax       = 120
	descriptionMax = 300
)

// timeLayouts are tried in order when parsing upstream date fields; the
// backends normalize to ISO-8601 but older sync records carry date-only or
// space-separated forms.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseWhen parses an upstream date string, returning the zero time when
// the value is empty or matches no known layout.
func ParseWhen(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RelativeTime renders a date as a short relative string against the given
// now: "now", "5m", "2h", "3d", "5w", or a short month/day once the item is
// four weeks old. Empty or unparseable dates yield "".
func RelativeTime(now time.Time, dateStr string) string {
	d := ParseWhen(dateStr)
	if d.IsZero() {
		return ""
	}

	diff := now.Sub(d)
	minutes := int(diff.Minutes())
	hours := int(diff.Hours())
	days := int(diff.Hours() / 24)
	weeks := days / 7

	switch {
	case minutes < 1:
		return "now"
	case minutes < 60:
		return strconv.Itoa(minutes) + "m"
	case hours < 24:
		return strconv.Itoa(hours) + "h"
	case days < 7:
		return strconv.Itoa(days) + "d"
	case weeks < 4:
		return strconv.Itoa(weeks) + "w"
	}
	return d.Format("Jan 2")
}

// FormatDate renders a date in a short human form, e.g. "Jan 2, 2006".
// Empty or unparseable dates yield "".
func FormatDate(dateStr string) string {
	d := ParseWhen(dateStr)
	if d.IsZero() {
		return ""
	}
	return d.Format("Jan 2, 2006")
}

// Truncate caps text at max runes, ellipsis included on cut
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimRight(string(runes[:max-1]), " ") + "…"
}

// FilterEntities drops blank candidates, preserving order so the primary
// actor stays first
func FilterEntities(candidates ...string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}
