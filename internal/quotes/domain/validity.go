package domain

import "time"

const hoursPerDay = 24

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the calendar-day difference to - from.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / hoursPerDay)
}

// IsExpired reports whether today is strictly after ValidUntil.
func (q *Quote) IsExpired(now time.Time) bool {
	return DateOf(now).After(DateOf(q.ValidUntil))
}

// DaysRemaining is ValidUntil - today and goes negative once expired.
func (q *Quote) DaysRemaining(now time.Time) int {
	return DaysBetween(now, q.ValidUntil)
}

// extendBy pushes ValidUntil out by days and recomputes ValidityDays
// against the creation date.
func (q *Quote) extendBy(days int) {
	q.ValidUntil = DateOf(q.ValidUntil).AddDate(0, 0, days)
	q.ValidityDays = DaysBetween(q.CreatedAt, q.ValidUntil)
}

// raiseValidity sets ValidityDays relative to creation only when that
// lengthens the current window. Returns true when applied.
func (q *Quote) raiseValidity(days int) bool {
	if days <= 0 {
		return false
	}
	candidate := DateOf(q.CreatedAt).AddDate(0, 0, days)
	if !candidate.After(DateOf(q.ValidUntil)) {
		return false
	}
	q.ValidUntil = candidate
	q.ValidityDays = days
	return true
}
