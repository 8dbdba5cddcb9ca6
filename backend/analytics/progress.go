package analytics

import (
	"sort"
	"time"

	"shelfcontrol/backend/models"
)

// DailyPages is pages read per user per local date, plus the order in which
// users were first seen (by deadline id, then record time).
type DailyPages struct {
	ByUser map[string]map[string]int
	Users  []string
}

// PagesReadPerDay walks each deadline's progress history one local day at a
// time. A day's value is the maximum progress recorded that day; pages read is
// that value minus the previous recorded day's value, or minus the baseline
// (last progress before the records begin, else zero) for the first day. A day
// with any ignore_in_calcs row contributes nothing but still becomes the
// previous value for the next day.
func PagesReadPerDay(records []models.ProgressRecord, baselines map[string]int, loc *time.Location) DailyPages {
	sorted := make([]models.ProgressRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DeadlineID != sorted[j].DeadlineID {
			return sorted[i].DeadlineID < sorted[j].DeadlineID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	type deadlineDays struct {
		owner   string
		max     map[string]int
		ignored map[string]bool
	}

	var order []string
	deadlines := make(map[string]*deadlineDays)
	for _, r := range sorted {
		d, ok := deadlines[r.DeadlineID]
		if !ok {
			d = &deadlineDays{owner: r.UserID, max: make(map[string]int), ignored: make(map[string]bool)}
			deadlines[r.DeadlineID] = d
			order = append(order, r.DeadlineID)
		}
		day := DateKey(r.CreatedAt, loc)
		if cur, seen := d.max[day]; !seen || r.CurrentProgress > cur {
			d.max[day] = r.CurrentProgress
		}
		if r.IgnoreInCalcs {
			d.ignored[day] = true
		}
	}

	out := DailyPages{ByUser: make(map[string]map[string]int)}
	for _, id := range order {
		d := deadlines[id]
		if _, ok := out.ByUser[d.owner]; !ok {
			out.ByUser[d.owner] = make(map[string]int)
			out.Users = append(out.Users, d.owner)
		}
		perDay := out.ByUser[d.owner]

		days := make([]string, 0, len(d.max))
		for day := range d.max {
			days = append(days, day)
		}
		sort.Strings(days)

		previous := baselines[id]
		for _, day := range days {
			current := d.max[day]
			if !d.ignored[day] {
				perDay[day] += current - previous
			}
			previous = current
		}
	}
	return out
}

// ProgressOverTime is the "pages read per day by user" chart: one dataset per
// user over the window, coloured from the palette in order of first appearance.
func ProgressOverTime(records []models.ProgressRecord, baselines map[string]int, users map[string]models.UserInfo, w Window, palette []string) SeriesData {
	daily := PagesReadPerDay(records, baselines, w.Location())
	keys := w.Keys()

	series := EmptySeries(w)
	for i, userID := range daily.Users {
		perDay := daily.ByUser[userID]
		data := make([]int, len(keys))
		for j, k := range keys {
			data[j] = perDay[k]
		}

		label := fallbackLabel(userID)
		if info, ok := users[userID]; ok {
			label = FormatUserName(info)
		}

		color := colorAt(palette, i)
		series.Datasets = append(series.Datasets, Dataset{
			Label:           label,
			Data:            data,
			BorderColor:     color,
			BackgroundColor: color,
			Tension:         lineTension,
		})
	}
	return series
}

// PagesReadOn totals pages read per user on one local date.
func PagesReadOn(daily DailyPages, dateKey string) map[string]int {
	totals := make(map[string]int)
	for _, userID := range daily.Users {
		if n, ok := daily.ByUser[userID][dateKey]; ok {
			totals[userID] = n
		}
	}
	return totals
}

// RankReaders orders users by pages read, most first, ties by user id. Users
// who read nothing (or only corrected backwards) are left out.
func RankReaders(totals map[string]int, limit int) []RankEntry {
	out := make([]RankEntry, 0, len(totals))
	for userID, pages := range totals {
		if pages > 0 {
			out = append(out, RankEntry{UserID: userID, PagesRead: pages})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PagesRead != out[j].PagesRead {
			return out[i].PagesRead > out[j].PagesRead
		}
		return out[i].UserID < out[j].UserID
	})
	out = truncate(out, limit)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// TopPagesReadToday ranks today's readers and attaches each one's rank in
// yesterday's list. The window must cover at least yesterday and today.
func TopPagesReadToday(records []models.ProgressRecord, baselines map[string]int, users map[string]models.UserInfo, w Window, limit int) []TopReader {
	daily := PagesReadPerDay(records, baselines, w.Location())
	keys := w.Keys()
	today := RankReaders(PagesReadOn(daily, keys[len(keys)-1]), limit)

	yesterdayRank := make(map[string]int)
	if len(keys) > 1 {
		for _, e := range RankReaders(PagesReadOn(daily, keys[len(keys)-2]), limit) {
			yesterdayRank[e.UserID] = e.Rank
		}
	}

	out := make([]TopReader, 0, len(today))
	for _, e := range today {
		info := users[e.UserID]
		reader := TopReader{
			UserID:    e.UserID,
			Email:     info.Email,
			Username:  info.Username,
			FirstName: info.FirstName,
			LastName:  info.LastName,
			PagesRead: e.PagesRead,
		}
		if r, ok := yesterdayRank[e.UserID]; ok {
			rank := r
			reader.YesterdayRank = &rank
		}
		out = append(out, reader)
	}
	return out
}

// Baselines reduces each deadline's history before a window to the value the
// window's first day is measured against: the maximum progress on the last
// local day with any record.
func Baselines(records []models.ProgressRecord, loc *time.Location) map[string]int {
	type last struct {
		day string
		max int
	}

	byDeadline := make(map[string]last)
	for _, r := range records {
		day := DateKey(r.CreatedAt, loc)
		cur, ok := byDeadline[r.DeadlineID]
		switch {
		case !ok || day > cur.day:
			byDeadline[r.DeadlineID] = last{day: day, max: r.CurrentProgress}
		case day == cur.day && r.CurrentProgress > cur.max:
			cur.max = r.CurrentProgress
			byDeadline[r.DeadlineID] = cur
		}
	}

	out := make(map[string]int, len(byDeadline))
	for id, l := range byDeadline {
		out[id] = l.max
	}
	return out
}
