// Package interval decides whether two half-open time ranges conflict.
package interval

import "time"

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New builds the interval starting at start and lasting d.
func New(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any
// instant. Ranges that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Overlaps reports whether i and o conflict.
func (i Interval) Overlaps(o Interval) bool {
	return Overlaps(i.Start, i.End, o.Start, o.End)
}

// Valid reports whether the interval is non-empty.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
