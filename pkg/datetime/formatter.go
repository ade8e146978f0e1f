package datetime

import (
	"time"
)

type Formatter struct {
	now func() time.Time
}

func NewFormatter() *Formatter {
	return &Formatter{now: time.Now}
}

// FormatForDisplay renders t relative to the current day.
func (f *Formatter) FormatForDisplay(t time.Time) string {
	local := t.Local()
	now := f.now().Local()

	if isSameDay(local, now) {
		return "Today, " + local.Format("15:04")
	}

	yesterday := now.AddDate(0, 0, -1)
	if isSameDay(local, yesterday) {
		return "Yesterday, " + local.Format("15:04")
	}

	weekAgo := now.AddDate(0, 0, -7)
	if local.After(weekAgo) {
		return local.Format("Monday")
	}

	if local.Year() == now.Year() {
		return local.Format("January 2")
	}

	return local.Format("January 2, 2006")
}

// FormatTimestamp is the absolute form used for comment dates.
func (f *Formatter) FormatTimestamp(t time.Time) string {
	return t.Local().Format("Jan 2, 2006 at 15:04")
}

func isSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
