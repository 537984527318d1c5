// Package daterange splits calendar date ranges into windows that satisfy a
// provider's maximum-days-per-request limit.
package daterange

import (
	"time"
)

// Layout is the only date format accepted and produced by this package.
const Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Chunk is one sub-interval of a requested date range.
// An empty Start or End means the bound was not supplied by the caller.
type Chunk struct {
	Start string
	End   string
}

// Split divides [start, end] into ordered, contiguous windows no longer than
// maxDays days. It never fails: a missing bound, an unparseable date, or a
// range that already fits yields the single chunk {start, end} unchanged.
//
// Consecutive windows share their boundary date (window N ends where
// window N+1 starts) and the final window ends exactly at end.
// maxDays below 1 is treated as 1.
func Split(start, end string, maxDays int) []Chunk {
	passthrough := []Chunk{{Start: start, End: end}}

	if start == "" || end == "" {
		return passthrough
	}

	from, err := time.Parse(Layout, start)
	if err != nil {
		return passthrough
	}
	to, err := time.Parse(Layout, end)
	if err != nil {
		return passthrough
	}

	if maxDays < 1 {
		maxDays = 1
	}

	total := days(from, to)
	if total <= maxDays {
		return passthrough
	}

	chunks := make([]Chunk, 0, total/maxDays+1)

	for windowStart := from; windowStart.Before(to); {
		windowEnd := windowStart.AddDate(0, 0, maxDays)
		if windowEnd.After(to) {
			windowEnd = to
		}
		if !windowEnd.After(windowStart) {
			break
		}

		chunks = append(chunks, Chunk{
			Start: windowStart.Format(Layout),
			End:   windowEnd.Format(Layout),
		})
		windowStart = windowEnd
	}

	return chunks
}

// Days returns the whole number of days between two Layout dates.
// ok is false when either date is missing or malformed.
func Days(start, end string) (n int, ok bool) {
	from, err := time.Parse(Layout, start)
	if err != nil {
		return 0, false
	}
	to, err := time.Parse(Layout, end)
	if err != nil {
		return 0, false
	}
	return days(from, to), true
}

// RangeEndingAt returns the Layout-formatted range covering the given number
// of days up to and including the date of end.
func RangeEndingAt(end time.Time, numDays int) (string, string) {
	end = end.UTC()
	start := end.AddDate(0, 0, -numDays)
	return start.Format(Layout), end.Format(Layout)
}

// days truncates towards zero like a calendar day difference. It works on
// Unix seconds since time.Duration overflows past about 292 years.
func days(from, to time.Time) int {
	return int((to.Unix() - from.Unix()) / secondsPerDay)
}
