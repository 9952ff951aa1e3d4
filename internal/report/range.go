package report

import "time"

const dateLayout = "2006-01-02"

// DateRange bounds a report query, inclusive on both ends. start <= end
// is not enforced; an inverted range simply matches nothing.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// StartString returns the lower bound formatted as YYYY-MM-DD.
func (r DateRange) StartString() string { return r.Start.Format(dateLayout) }

// EndString returns the upper bound formatted as YYYY-MM-DD.
func (r DateRange) EndString() string { return r.End.Format(dateLayout) }

// DefaultRange is year-to-date: January 1st of now's year through now.
func DefaultRange(now time.Time) DateRange {
	return DateRange{
		Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()),
		End:   now,
	}
}

// ParseRange builds a range from optional YYYY-MM-DD query parameters,
// defaulting each missing or malformed bound like DefaultRange. The end
// bound is extended to the last instant of its day so documents dated
// that day are included.
func ParseRange(start, end string, now time.Time) DateRange {
	r := DefaultRange(now)
	if t, err := time.Parse(dateLayout, start); err == nil {
		r.Start = t
	}
	if t, err := time.Parse(dateLayout, end); err == nil {
		r.End = t.Add(24*time.Hour - time.Nanosecond)
	}
	return r
}

// parseDocDate parses a document date as emitted by SIIGO. Records with
// unparsable dates are excluded from date-filtered aggregates.
func parseDocDate(s string) (time.Time, bool) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
