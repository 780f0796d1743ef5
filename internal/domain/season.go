package domain

import (
	"fmt"
	"time"
)

// SeasonWindow declares the fixed calendar range offset-dated sources are
// defined over, e.g. June 1 for 122 days (through September 30). It is
// explicit configuration, never an embedded constant, so different
// seasons and years validate independently.
type SeasonWindow struct {
	StartMonth time.Month
	StartDay   int
	Length     int // days in the window
}

// Validate checks the window declaration itself.
func (w SeasonWindow) Validate() error {
	if w.StartMonth < time.January || w.StartMonth > time.December {
		return fmt.Errorf("season window: invalid start month %d", w.StartMonth)
	}
	if w.StartDay < 1 || w.StartDay > 31 {
		return fmt.Errorf("season window: invalid start day %d", w.StartDay)
	}
	if w.Length < 1 {
		return fmt.Errorf("season window: invalid length %d", w.Length)
	}
	// Reject declarations like Feb 30 that calendar arithmetic would
	// silently normalize into March.
	start := w.Start(2001)
	if start.Day() != w.StartDay || start.Month() != w.StartMonth {
		return fmt.Errorf("season window: %02d-%02d is not a calendar date", w.StartMonth, w.StartDay)
	}
	return nil
}

// Start returns the window's first day in the given year, UTC midnight.
func (w SeasonWindow) Start(year int) time.Time {
	return time.Date(year, w.StartMonth, w.StartDay, 0, 0, 0, 0, time.UTC)
}

// DateFor reconstructs the explicit calendar date for a day offset within
// the given year's window. True calendar arithmetic (AddDate) keeps leap
// years aligned; offsets at or past the declared length fail loudly with
// ErrOffsetOutOfRange.
func (w SeasonWindow) DateFor(year, offset int) (time.Time, error) {
	if offset < 0 || offset >= w.Length {
		return time.Time{}, fmt.Errorf("%w: offset %d for season of %d days", ErrOffsetOutOfRange, offset, w.Length)
	}
	return w.Start(year).AddDate(0, 0, offset), nil
}

// Contains reports whether d falls inside the window of d's own year.
// Used by the output validator.
func (w SeasonWindow) Contains(d time.Time) bool {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	start := w.Start(d.Year())
	end := start.AddDate(0, 0, w.Length-1)
	return !d.Before(start) && !d.After(end)
}
