package expiry

import (
	"strings"
	"time"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

// ExpiringSoonDays is the inclusive upper bound of the expiring_soon window.
const ExpiringSoonDays = 30

const (
	day        = 24 * time.Hour
	dateLayout = "2006-01-02"
)

var notifiedStatuses = []domain.ExpiryStatus{domain.StatusExpired, domain.StatusExpiringSoon}

// ParseDate reads a calendar date ("2006-01-02") at midnight in loc, or an
// RFC 3339 timestamp. ok is false for an empty value.
func ParseDate(raw string, loc *time.Location) (t time.Time, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err = time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, true, nil
	}
	if ts, tsErr := time.Parse(time.RFC3339, raw); tsErr == nil {
		return ts, true, nil
	}
	return time.Time{}, false, err
}

// DaysRemaining counts calendar days from today to expiry in today's
// location, plus one when expiry falls later in its day than today does.
// Negative means overdue. DST shifts never change the count.
func DaysRemaining(expiry, today time.Time) int {
	expiry = expiry.In(today.Location())
	days := int(calendarDate(expiry).Sub(calendarDate(today)) / day)
	if clockOf(expiry) > clockOf(today) {
		days++
	}
	return days
}

// calendarDate re-anchors the wall-clock date in UTC so subtraction yields
// whole days.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clockOf(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

func StatusFor(daysRemaining int) domain.ExpiryStatus {
	switch {
	case daysRemaining < 0:
		return domain.StatusExpired
	case daysRemaining <= ExpiringSoonDays:
		return domain.StatusExpiringSoon
	default:
		return domain.StatusValid
	}
}

// Classify maps an expiry date to its day count and status.
func Classify(expiry, today time.Time) (int, domain.ExpiryStatus) {
	days := DaysRemaining(expiry, today)
	return days, StatusFor(days)
}
