package analytics

import (
	"sort"
	"time"

	"shelfcontrol/backend/models"
)

const popularQueryLimit = 10

// ActivityTypesBreakdown counts activities per type, most frequent first.
func ActivityTypesBreakdown(activities []models.UserActivity) []ActivityTypeCount {
	counts := make(map[string]int)
	for _, a := range activities {
		counts[a.ActivityType]++
	}

	out := make([]ActivityTypeCount, 0, len(counts))
	for activityType, n := range counts {
		out = append(out, ActivityTypeCount{ActivityType: activityType, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ActivityType < out[j].ActivityType
	})
	return out
}

// SearchAnalytics reports the total, the ten most popular queries and the
// number of searches per UTC day.
func SearchAnalytics(searches []models.UserSearch) SearchAnalyticsData {
	queryCount := make(map[string]int)
	createdAt := make([]time.Time, 0, len(searches))
	for _, s := range searches {
		queryCount[s.Query]++
		createdAt = append(createdAt, s.CreatedAt)
	}

	popular := make([]QueryCount, 0, len(queryCount))
	for q, n := range queryCount {
		popular = append(popular, QueryCount{Query: q, Count: n})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Count != popular[j].Count {
			return popular[i].Count > popular[j].Count
		}
		return popular[i].Query < popular[j].Query
	})
	if len(popular) > popularQueryLimit {
		popular = popular[:popularQueryLimit]
	}

	return SearchAnalyticsData{
		TotalSearches:  len(searches),
		PopularQueries: popular,
		SearchesByDate: countByUTCDate(createdAt),
	}
}

// LatestStatuses maps each deadline to its most recent status by updated_at.
// A blank status reads as "unknown".
func LatestStatuses(statuses []models.DeadlineStatus) map[string]string {
	type latest struct {
		status    string
		updatedAt time.Time
		id        uint
	}

	byDeadline := make(map[string]latest)
	for _, s := range statuses {
		if s.DeadlineID == "" {
			continue
		}
		cur, ok := byDeadline[s.DeadlineID]
		if ok && (s.UpdatedAt.Before(cur.updatedAt) || (s.UpdatedAt.Equal(cur.updatedAt) && s.ID < cur.id)) {
			continue
		}
		byDeadline[s.DeadlineID] = latest{status: s.Status, updatedAt: s.UpdatedAt, id: s.ID}
	}

	out := make(map[string]string, len(byDeadline))
	for id, l := range byDeadline {
		status := l.status
		if status == "" {
			status = models.StatusUnknown
		}
		out[id] = status
	}
	return out
}

// DeadlineStats combines the latest-status breakdown with deadlines created per
// UTC day. Status rows for deadlines outside the given set are ignored.
func DeadlineStats(deadlines []models.Deadline, statuses []models.DeadlineStatus) DeadlineStatsData {
	createdAt := make([]time.Time, 0, len(deadlines))
	for _, d := range deadlines {
		createdAt = append(createdAt, d.CreatedAt)
	}

	return DeadlineStatsData{
		StatusBreakdown: DeadlinesByStatus(deadlines, statuses),
		DeadlinesByDate: countByUTCDate(createdAt),
		TotalDeadlines:  len(deadlines),
	}
}

// DeadlinesOverTime counts deadlines per UTC creation day.
func DeadlinesOverTime(deadlines []models.Deadline) []DateCount {
	createdAt := make([]time.Time, 0, len(deadlines))
	for _, d := range deadlines {
		createdAt = append(createdAt, d.CreatedAt)
	}
	return countByUTCDate(createdAt)
}

// DeadlinesByStatus counts deadlines by latest status in display order.
// Deadlines without any status row are not counted.
func DeadlinesByStatus(deadlines []models.Deadline, statuses []models.DeadlineStatus) []StatusCount {
	latest := LatestStatuses(statuses)
	counts := make(map[string]int)
	for _, d := range deadlines {
		if status, ok := latest[d.ID]; ok {
			counts[status]++
		}
	}
	return OrderStatusCounts(counts)
}

// OrderStatusCounts puts precomputed status counts into display order.
func OrderStatusCounts(counts map[string]int) []StatusCount {
	return orderedCounts(counts, models.StatusOrder, func(k string, n int) StatusCount {
		return StatusCount{Status: k, Count: n}
	})
}

// FormatDistribution counts deadlines per book format; a blank format is "unknown".
func FormatDistribution(deadlines []models.Deadline) []FormatCount {
	counts := make(map[string]int)
	for _, d := range deadlines {
		format := d.Format
		if format == "" {
			format = models.FormatUnknown
		}
		counts[format]++
	}
	return orderedCounts(counts, models.FormatOrder, func(k string, n int) FormatCount {
		return FormatCount{Format: k, Count: n}
	})
}

// TopBooks ranks books by how many deadlines reference them.
func TopBooks(deadlines []models.Deadline, books []models.Book, limit int) []TopBook {
	byID := make(map[string]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	counts := make(map[string]*TopBook)
	for _, d := range deadlines {
		if d.BookID == nil || *d.BookID == "" {
			continue
		}
		entry, ok := counts[*d.BookID]
		if !ok {
			entry = &TopBook{BookID: *d.BookID, Title: d.BookTitle}
			if b, found := byID[*d.BookID]; found {
				entry.Title = b.Title
				entry.CoverImageURL = b.CoverImageURL
			}
			counts[*d.BookID] = entry
		}
		entry.DeadlineCount++
	}

	out := make([]TopBook, 0, len(counts))
	for _, b := range counts {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DeadlineCount != out[j].DeadlineCount {
			return out[i].DeadlineCount > out[j].DeadlineCount
		}
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].BookID < out[j].BookID
	})
	return truncate(out, limit)
}

// TopUsersByDeadlines ranks users by number of deadlines.
func TopUsersByDeadlines(deadlines []models.Deadline, users []models.UserInfo, limit int) []UserCount {
	counts := make(map[string]int)
	for _, d := range deadlines {
		counts[d.UserID]++
	}
	return rankUsers(counts, users, limit)
}

func rankUsers(counts map[string]int, users []models.UserInfo, limit int) []UserCount {
	byID := make(map[string]models.UserInfo, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]UserCount, 0, len(counts))
	for id, n := range counts {
		if n <= 0 {
			continue
		}
		u := byID[id]
		out = append(out, UserCount{
			UserID:    id,
			Email:     u.Email,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Count:     n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UserID < out[j].UserID
	})
	return truncate(out, limit)
}

func countByUTCDate(times []time.Time) []DateCount {
	counts := make(map[string]int)
	for _, t := range times {
		counts[DateKey(t, time.UTC)]++
	}

	out := make([]DateCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, DateCount{Date: date, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// orderedCounts emits the known keys in order, then any others alphabetically.
func orderedCounts[T any](counts map[string]int, order []string, build func(string, int) T) []T {
	out := make([]T, 0, len(counts))
	known := make(map[string]struct{}, len(order))
	for _, k := range order {
		known[k] = struct{}{}
		if n, ok := counts[k]; ok {
			out = append(out, build(k, n))
		}
	}

	var rest []string
	for k := range counts {
		if _, ok := known[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, build(k, counts[k]))
	}
	return out
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
