package services

import (
	"fmt"
	"time"
)

// ZeroTimer is what callers substitute when there is no start time to
// measure from.
const ZeroTimer = "00:00:00"

// FormatTimer renders the elapsed time between start and now as HH:MM:SS.
// Hours are not wrapped at 24; a 3-day outage reads "72:00:00".
func FormatTimer(start, now time.Time) string {
	d := now.Sub(start)
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
