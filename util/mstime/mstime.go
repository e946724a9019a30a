// Package mstime converts between time.Time and the millisecond timestamps
// stored in block headers.
package mstime

import "time"

// Now returns the current time truncated to whole milliseconds, so it
// survives a round trip through a block header unchanged.
func Now() time.Time {
	return time.Now().Truncate(time.Millisecond)
}

// UnixMilliToTime returns the local time of a header timestamp
func UnixMilliToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// TimeToUnixMilli returns t as a header timestamp
func TimeToUnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}
