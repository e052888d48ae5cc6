package intent

import "time"

// InferYear picks the year for a month and day given without one: the
// current year when that date is still ahead of today, otherwise next year.
func InferYear(today time.Time, month time.Month, day int) int {
	y, m, d := today.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	candidate := time.Date(y, month, day, 0, 0, 0, 0, time.UTC)
	if candidate.After(midnight) {
		return y
	}
	return y + 1
}
