package analytics

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Window is N consecutive local calendar days ending with the day containing now.
type Window struct {
	loc   *time.Location
	days  []time.Time
	index map[string]int
}

// NewWindow builds a window of n days (at least one) ending today in loc.
func NewWindow(now time.Time, n int, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	if n < 1 {
		n = 1
	}

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	w := Window{
		loc:   loc,
		days:  make([]time.Time, n),
		index: make(map[string]int, n),
	}
	for i := 0; i < n; i++ {
		day := today.AddDate(0, 0, i-(n-1))
		w.days[i] = day
		w.index[day.Format(dateLayout)] = i
	}
	return w
}

func (w Window) Len() int {
	return len(w.days)
}

func (w Window) Location() *time.Location {
	return w.loc
}

// Start is local midnight of the first day.
func (w Window) Start() time.Time {
	return w.days[0]
}

// End is local midnight after the last day (exclusive bound).
func (w Window) End() time.Time {
	return w.days[len(w.days)-1].AddDate(0, 0, 1)
}

// Day returns local midnight of the i-th day.
func (w Window) Day(i int) time.Time {
	return w.days[i]
}

// Keys returns the days as YYYY-MM-DD.
func (w Window) Keys() []string {
	keys := make([]string, len(w.days))
	for i, d := range w.days {
		keys[i] = d.Format(dateLayout)
	}
	return keys
}

// Labels returns the days as chart labels, e.g. "3/7".
func (w Window) Labels() []string {
	labels := make([]string, len(w.days))
	for i, d := range w.days {
		labels[i] = fmt.Sprintf("%d/%d", int(d.Month()), d.Day())
	}
	return labels
}

// Index reports which day of the window t falls on.
func (w Window) Index(t time.Time) (int, bool) {
	i, ok := w.index[DateKey(t, w.loc)]
	return i, ok
}

// DateKey is the local calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}
