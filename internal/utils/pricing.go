package utils

import "time"

// LineCostCents computes the cost of reserving quantity units at the given
// hourly rate over [start, end): quantity x rate x hours.
func LineCostCents(quantity, hourlyRateCents int32, start, end time.Time) int64 {
	return int64(quantity) * int64(hourlyRateCents) * int64(DurationHours(start, end))
}
