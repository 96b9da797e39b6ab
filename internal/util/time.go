package util

import (
	"fmt"
	"time"
)

// TimeSince renders the elapsed time between then and now using the largest
// non-zero unit among days, hours and minutes. Anything under a minute
// (including a then in the future) reads as "minute".
func TimeSince(then, now time.Time) string {
	elapsed := now.Sub(then)

	if days := int(elapsed / (24 * time.Hour)); days > 0 {
		return CountNoun(days, "day")
	}
	if hours := int(elapsed / time.Hour); hours > 0 {
		return CountNoun(hours, "hour")
	}
	if minutes := int(elapsed / time.Minute); minutes > 0 {
		return CountNoun(minutes, "minute")
	}
	return "minute"
}

// FormatISO renders t the way snapshot files store it.
func FormatISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// CountNoun joins n and noun, pluralizing noun unless n is exactly one.
func CountNoun(n int, noun string) string {
	return fmt.Sprintf("%d %s", n, Pluralize(n, noun))
}
