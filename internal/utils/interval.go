package utils

import (
	"fmt"
	"time"
)

// DateLayout is the yyyy-mm-dd wire format used for all rental dates.
const DateLayout = "2006-01-02"

// ParseDate converts a yyyy-mm-dd formatted string into a time.Time.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd: %w", dateStr, err)
	}
	return t, nil
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) share at least one instant. Ranges that merely touch at a
// boundary (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// DurationHours returns the rental duration of [start, end) in whole hours,
// counted as full days times 24. Inverted or zero-day ranges yield 0; the
// booking workflow rejects those before pricing is ever reached.
func DurationHours(start, end time.Time) int32 {
	days := int32(end.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days * 24
}
