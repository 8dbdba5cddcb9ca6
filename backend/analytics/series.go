package analytics

import (
	"sort"
	"time"

	"shelfcontrol/backend/models"
)

const lineTension = 0.1

// ProfilesCreatedOverTime counts profiles created on each day of the window.
func ProfilesCreatedOverTime(profiles []models.Profile, w Window) CountSeries {
	series := EmptyCountSeries(w)
	for _, p := range profiles {
		if i, ok := w.Index(p.CreatedAt); ok {
			series.Counts[i]++
		}
	}
	return series
}

// ActivityTypesOverTime draws one line per activity type across the window.
// Types are ordered by total count in the window, then by name.
func ActivityTypesOverTime(activities []models.UserActivity, w Window, palette []string) SeriesData {
	perType := make(map[string][]int)
	totals := make(map[string]int)
	for _, a := range activities {
		i, ok := w.Index(a.CreatedAt)
		if !ok {
			continue
		}
		data, seen := perType[a.ActivityType]
		if !seen {
			data = make([]int, w.Len())
			perType[a.ActivityType] = data
		}
		data[i]++
		totals[a.ActivityType]++
	}

	types := make([]string, 0, len(perType))
	for t := range perType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if totals[types[i]] != totals[types[j]] {
			return totals[types[i]] > totals[types[j]]
		}
		return types[i] < types[j]
	})

	series := EmptySeries(w)
	for i, t := range types {
		color := colorAt(palette, i)
		series.Datasets = append(series.Datasets, Dataset{
			Label:           t,
			Data:            perType[t],
			BorderColor:     color,
			BackgroundColor: color,
			Tension:         lineTension,
		})
	}
	return series
}

// MostActiveUsers ranks users by activity count on the last day of the window.
func MostActiveUsers(activities []models.UserActivity, users []models.UserInfo, w Window, limit int) []UserCount {
	last := w.Len() - 1
	counts := make(map[string]int)
	for _, a := range activities {
		if i, ok := w.Index(a.CreatedAt); ok && i == last {
			counts[a.UserID]++
		}
	}
	return rankUsers(counts, users, limit)
}

// ActiveOverduePageCounts sums total_quantity of deadlines that were reading
// (active) or overdue at the end of each day in the window. The status as of a
// day is the latest status row updated before the following local midnight.
func ActiveOverduePageCounts(deadlines []models.Deadline, statuses []models.DeadlineStatus, w Window) ActiveOverdueData {
	out := EmptyActiveOverdue(w)

	history := make(map[string][]models.DeadlineStatus)
	for _, s := range statuses {
		history[s.DeadlineID] = append(history[s.DeadlineID], s)
	}
	for id := range history {
		h := history[id]
		sort.SliceStable(h, func(i, j int) bool {
			if h[i].UpdatedAt.Equal(h[j].UpdatedAt) {
				return h[i].ID < h[j].ID
			}
			return h[i].UpdatedAt.Before(h[j].UpdatedAt)
		})
	}

	for _, d := range deadlines {
		h := history[d.ID]
		if len(h) == 0 {
			continue
		}
		for i := 0; i < w.Len(); i++ {
			switch statusAsOf(h, w.Day(i).AddDate(0, 0, 1)) {
			case models.StatusReading:
				out.ActivePages[i] += d.TotalQuantity
			case models.StatusOverdue:
				out.OverduePages[i] += d.TotalQuantity
			}
		}
	}
	return out
}

// statusAsOf returns the last status updated strictly before cutoff; history
// must be sorted ascending.
func statusAsOf(history []models.DeadlineStatus, cutoff time.Time) string {
	n := sort.Search(len(history), func(i int) bool {
		return !history[i].UpdatedAt.Before(cutoff)
	})
	if n == 0 {
		return ""
	}
	return history[n-1].Status
}
