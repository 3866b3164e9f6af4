package domain

import "time"

// Cadence is the recurrence interval of a subscription template.
type Cadence string

const (
	CadenceMonthly   Cadence = "MONTHLY"
	CadenceQuarterly Cadence = "QUARTERLY"
	CadenceYearly    Cadence = "YEARLY"
)

// ValidCadence reports whether the cadence is one of the closed set.
func ValidCadence(c Cadence) bool {
	switch c {
	case CadenceMonthly, CadenceQuarterly, CadenceYearly:
		return true
	default:
		return false
	}
}

func (c Cadence) months() int {
	switch c {
	case CadenceQuarterly:
		return 3
	case CadenceYearly:
		return 12
	default:
		return 1
	}
}

// Advance returns the next run instant, one cadence step after from. The day
// of month is clamped to the target month's length, so a January 31 anchor
// lands on February 28 (or 29) rather than spilling into March.
func Advance(from time.Time, c Cadence) time.Time {
	return addMonthsClamped(from, c.months())
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(
		firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location(),
	)
}
