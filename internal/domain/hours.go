package domain

import (
	"regexp"
	"time"
)

var hhmmRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidHHMM reports whether s is a zero-padded 24h clock value like "09:00".
func ValidHHMM(s string) bool {
	return hhmmRe.MatchString(s)
}

// WithinBusinessHours reports whether reminders may fire at the given moment
// under the rule. Weekends are excluded unless enabled; the daily window is a
// lexicographic HH:MM comparison, inclusive on both ends.
func WithinBusinessHours(now time.Time, rule *ReminderRule) bool {
	wd := now.Weekday()
	if (wd == time.Saturday || wd == time.Sunday) && !rule.WeekendEnabled {
		return false
	}
	hhmm := now.Format("15:04")
	return hhmm >= rule.BusinessHoursStart && hhmm <= rule.BusinessHoursEnd
}

const previewRunes = 200

// Preview truncates message content for todo listings.
func Preview(content string) string {
	r := []rune(content)
	if len(r) <= previewRunes {
		return content
	}
	return string(r[:previewRunes])
}

// EndOfDay returns 23:59:59 of the same calendar day as now.
func EndOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
}

// MonthTag renders the calendar month the usage counter belongs to.
func MonthTag(now time.Time) string {
	return now.UTC().Format("2006-01")
}
