package timeline

import (
	"strconv"
	"strings"
	"time"
)

// Calendar approximations used when a delta spans months or years.
const (
	day   = 24 * time.Hour
	month = 2630016 * time.Second  // 30.44 days
	year  = 31557600 * time.Second // 365.25 days
)

type unit struct {
	size     time.Duration
	singular string
	plural   string
}

var units = []unit{
	{year, "year", "years"},
	{month, "month", "months"},
	{day, "day", "days"},
	{time.Hour, "h", "h"},
	{time.Minute, "m", "m"},
	{time.Second, "s", "s"},
	{time.Millisecond, "ms", "ms"},
	{time.Microsecond, "us", "us"},
	{time.Nanosecond, "ns", "ns"},
}

// FormatDuration renders d as space separated components, largest first,
// skipping zero components:
//
//	12s, 1m 5s, 2h 3m, 1day 4h, 3days, 250ms
//
// Zero renders as "0s". Negative durations are rendered by magnitude with a
// leading "-"; the accumulator never produces them.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		if d == time.Duration(-1<<63) {
			d = time.Duration(1<<63 - 1)
		} else {
			d = -d
		}
	}

	first := true
	for _, u := range units {
		n := d / u.size
		if n == 0 {
			continue
		}
		d -= n * u.size

		if !first {
			b.WriteByte(' ')
		}
		first = false

		b.WriteString(strconv.FormatInt(int64(n), 10))
		if n == 1 {
			b.WriteString(u.singular)
		} else {
			b.WriteString(u.plural)
		}
	}
	return b.String()
}
