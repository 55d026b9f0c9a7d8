// Package appletime converts between Apple's Core Data timestamps and
// Unix time. chat.db stores dates as nanoseconds elapsed since
// 2001-01-01 00:00:00 UTC.
package appletime

import "time"

// epochOffsetMS is 2001-01-01 00:00:00 UTC expressed in Unix milliseconds.
const epochOffsetMS int64 = 978307200000

// ToUnixMilli converts a raw chat.db date to Unix milliseconds.
// A zero raw value means the row has no usable date yet, so the current
// wall clock is returned instead of an epoch-zero timestamp that would
// sort new rows into the distant past.
func ToUnixMilli(raw int64) int64 {
	if raw == 0 {
		return time.Now().UnixMilli()
	}
	return epochOffsetMS + raw/1_000_000
}

// FromUnixMilli converts Unix milliseconds back to a raw chat.db date,
// for use in query cursor comparisons.
func FromUnixMilli(ms int64) int64 {
	return (ms - epochOffsetMS) * 1_000_000
}
