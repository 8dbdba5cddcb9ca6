package analytics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfcontrol/backend/config"
	"shelfcontrol/backend/models"
)

const (
	userAda  = "0b0c6c1e-3d59-4b47-8d7c-4cde3d2b3a11"
	userBob  = "9f1d2c3b-1111-4222-8333-444455556666"
	userCara = "5a5a5a5a-2222-4333-8444-555566667777"
)

func ptr(s string) *string { return &s }

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestNewWindow(t *testing.T) {
	w := NewWindow(at(10, 15), 3, time.UTC)

	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []string{"2026-03-08", "2026-03-09", "2026-03-10"}, w.Keys())
	assert.Equal(t, []string{"3/8", "3/9", "3/10"}, w.Labels())
	assert.Equal(t, at(8, 0), w.Start())
	assert.Equal(t, at(11, 0), w.End())

	i, ok := w.Index(at(9, 23))
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = w.Index(at(7, 23))
	assert.False(t, ok)
}

func TestNewWindowLengthAlwaysN(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	for _, n := range []int{1, 7, 14, 21, 30, 90} {
		w := NewWindow(time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC), n, loc)
		assert.Len(t, w.Keys(), n)
		assert.Len(t, w.Labels(), n)
		assert.Len(t, EmptySeries(w).Dates, n)
		assert.Len(t, EmptyCountSeries(w).Counts, n)
	}

	assert.Equal(t, 1, NewWindow(at(10, 0), 0, nil).Len())
}

func TestNewWindowUsesLocalDate(t *testing.T) {
	// 02:00 UTC on the 10th is still the evening of the 9th in UTC-5.
	w := NewWindow(at(10, 2), 2, time.FixedZone("UTC-05:00", -5*3600))
	assert.Equal(t, []string{"2026-03-08", "2026-03-09"}, w.Keys())
}

func TestFormatUserName(t *testing.T) {
	tests := []struct {
		name string
		user models.UserInfo
		want string
	}{
		{"full name", models.UserInfo{ID: userAda, FirstName: ptr("Ada"), LastName: ptr("Lovelace"), Username: ptr("ada")}, "Ada Lovelace"},
		{"first only", models.UserInfo{ID: userAda, FirstName: ptr("Ada"), LastName: ptr("")}, "Ada"},
		{"last only", models.UserInfo{ID: userAda, LastName: ptr("Lovelace")}, "Lovelace"},
		{"username", models.UserInfo{ID: userAda, Username: ptr("bookworm"), Email: ptr("a@x.io")}, "bookworm"},
		{"email", models.UserInfo{ID: userAda, Email: ptr("a@x.io")}, "a@x.io"},
		{"id", models.UserInfo{ID: userAda}, userAda},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUserName(tt.user))
		})
	}
}

func TestSearchUsers(t *testing.T) {
	users := []models.UserInfo{
		{ID: userAda, FirstName: ptr("Ada"), LastName: ptr("Lovelace"), Email: ptr("ada@example.com")},
		{ID: userBob, Username: ptr("bookworm")},
		{ID: userCara, Email: ptr("carol@reads.io")},
	}

	names := func(us []models.UserInfo) []string {
		out := []string{}
		for _, u := range us {
			out = append(out, u.ID)
		}
		return out
	}

	assert.Equal(t, []string{userAda}, names(SearchUsers(users, "ADA", "")))
	assert.Equal(t, []string{userCara}, names(SearchUsers(users, "reads", "")))
	assert.Equal(t, []string{userBob}, names(SearchUsers(users, "worm", "")))
	assert.Empty(t, SearchUsers(users, "", ""))
	assert.Empty(t, SearchUsers(users, "ada", userAda))
}

func TestFilterDatasets(t *testing.T) {
	datasets := []Dataset{{Label: "search"}, {Label: "login"}, {Label: "progress_update"}}
	got := FilterDatasets(datasets, []string{"progress_update", "search"})
	assert.Equal(t, []Dataset{{Label: "search"}, {Label: "progress_update"}}, got)
	assert.Empty(t, FilterDatasets(datasets, nil))
}

func TestActivityTypesBreakdown(t *testing.T) {
	activities := []models.UserActivity{
		{ActivityType: "search"},
		{ActivityType: "progress_update"},
		{ActivityType: "search"},
		{ActivityType: "login"},
	}
	want := []ActivityTypeCount{
		{ActivityType: "search", Count: 2},
		{ActivityType: "login", Count: 1},
		{ActivityType: "progress_update", Count: 1},
	}
	assert.Equal(t, want, ActivityTypesBreakdown(activities))
	assert.Empty(t, ActivityTypesBreakdown(nil))
}

func TestSearchAnalytics(t *testing.T) {
	var searches []models.UserSearch
	for i, q := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		searches = append(searches, models.UserSearch{Query: q, CreatedAt: at(8, i)})
	}
	searches = append(searches,
		models.UserSearch{Query: "k", CreatedAt: at(9, 1)},
		models.UserSearch{Query: "k", CreatedAt: at(9, 2)},
		models.UserSearch{Query: "j", CreatedAt: at(10, 23)},
	)

	got := SearchAnalytics(searches)

	assert.Equal(t, 14, got.TotalSearches)
	require.Len(t, got.PopularQueries, 10)
	assert.Equal(t, QueryCount{Query: "k", Count: 3}, got.PopularQueries[0])
	assert.Equal(t, QueryCount{Query: "j", Count: 2}, got.PopularQueries[1])
	assert.Equal(t, QueryCount{Query: "a", Count: 1}, got.PopularQueries[2])
	assert.Equal(t, QueryCount{Query: "h", Count: 1}, got.PopularQueries[9])
	assert.Equal(t, []DateCount{
		{Date: "2026-03-08", Count: 11},
		{Date: "2026-03-09", Count: 2},
		{Date: "2026-03-10", Count: 1},
	}, got.SearchesByDate)
}

func TestLatestStatuses(t *testing.T) {
	statuses := []models.DeadlineStatus{
		{ID: 1, DeadlineID: "d1", Status: "pending", UpdatedAt: at(8, 0)},
		{ID: 2, DeadlineID: "d1", Status: "reading", UpdatedAt: at(9, 0)},
		{ID: 3, DeadlineID: "d2", Status: "reading", UpdatedAt: at(9, 0)},
		{ID: 4, DeadlineID: "d2", Status: "complete", UpdatedAt: at(9, 0)},
		{ID: 5, DeadlineID: "d3", Status: "", UpdatedAt: at(9, 0)},
		{ID: 6, DeadlineID: "", Status: "overdue", UpdatedAt: at(9, 0)},
	}
	assert.Equal(t, map[string]string{
		"d1": "reading",
		"d2": "complete",
		"d3": "unknown",
	}, LatestStatuses(statuses))
}

func TestDeadlineStats(t *testing.T) {
	deadlines := []models.Deadline{
		{ID: "d1", CreatedAt: at(8, 10)},
		{ID: "d2", CreatedAt: time.Date(2026, 3, 8, 23, 30, 0, 0, time.UTC)},
		{ID: "d3", CreatedAt: at(9, 1)},
		{ID: "d4", CreatedAt: at(9, 2)},
	}
	statuses := []models.DeadlineStatus{
		{ID: 1, DeadlineID: "d1", Status: "pending", UpdatedAt: at(8, 10)},
		{ID: 2, DeadlineID: "d1", Status: "reading", UpdatedAt: at(9, 10)},
		{ID: 3, DeadlineID: "d2", Status: "", UpdatedAt: at(8, 23)},
		{ID: 4, DeadlineID: "d3", Status: "complete", UpdatedAt: at(9, 3)},
		{ID: 5, DeadlineID: "other", Status: "overdue", UpdatedAt: at(9, 3)},
	}

	got := DeadlineStats(deadlines, statuses)

	want := DeadlineStatsData{
		StatusBreakdown: []StatusCount{
			{Status: "reading", Count: 1},
			{Status: "complete", Count: 1},
			{Status: "unknown", Count: 1},
		},
		DeadlinesByDate: []DateCount{
			{Date: "2026-03-08", Count: 2},
			{Date: "2026-03-09", Count: 2},
		},
		TotalDeadlines: 4,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DeadlineStats mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, want.DeadlinesByDate, DeadlinesOverTime(deadlines))
}

func TestFormatDistribution(t *testing.T) {
	deadlines := []models.Deadline{
		{Format: "physical"}, {Format: "audio"}, {Format: ""}, {Format: "physical"}, {Format: "kindle"},
	}
	assert.Equal(t, []FormatCount{
		{Format: "physical", Count: 2},
		{Format: "audio", Count: 1},
		{Format: "unknown", Count: 1},
		{Format: "kindle", Count: 1},
	}, FormatDistribution(deadlines))
}

func TestTopBooks(t *testing.T) {
	cover := "https://covers.example/b1.jpg"
	books := []models.Book{
		{ID: "b1", Title: "Piranesi", CoverImageURL: &cover},
		{ID: "b2", Title: "Circe"},
	}
	deadlines := []models.Deadline{
		{BookID: ptr("b1")},
		{BookID: ptr("b2")},
		{BookID: ptr("b1")},
		{BookID: ptr("b3"), BookTitle: "Babel"},
		{BookID: nil, BookTitle: "No book"},
	}

	got := TopBooks(deadlines, books, 2)
	assert.Equal(t, []TopBook{
		{BookID: "b1", Title: "Piranesi", CoverImageURL: &cover, DeadlineCount: 2},
		{BookID: "b3", Title: "Babel", DeadlineCount: 1},
	}, got)
}

func TestTopUsersByDeadlines(t *testing.T) {
	users := []models.UserInfo{{ID: userAda, Username: ptr("ada")}}
	deadlines := []models.Deadline{{UserID: userBob}, {UserID: userAda}, {UserID: userAda}}

	got := TopUsersByDeadlines(deadlines, users, 10)
	require.Len(t, got, 2)
	assert.Equal(t, userAda, got[0].UserID)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, ptr("ada"), got[0].Username)
	assert.Equal(t, userBob, got[1].UserID)
	assert.Nil(t, got[1].Username)
}

func TestProfilesCreatedOverTime(t *testing.T) {
	w := NewWindow(at(10, 12), 3, time.UTC)
	profiles := []models.Profile{
		{CreatedAt: at(8, 1)},
		{CreatedAt: at(8, 20)},
		{CreatedAt: at(10, 3)},
		{CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	got := ProfilesCreatedOverTime(profiles, w)
	assert.Equal(t, []string{"3/8", "3/9", "3/10"}, got.Dates)
	assert.Equal(t, []int{2, 0, 1}, got.Counts)
}

func TestActivityTypesOverTime(t *testing.T) {
	w := NewWindow(at(10, 12), 3, time.UTC)
	activities := []models.UserActivity{
		{ActivityType: "search", CreatedAt: at(10, 1)},
		{ActivityType: "search", CreatedAt: at(10, 2)},
		{ActivityType: "progress_update", CreatedAt: at(8, 1)},
		{ActivityType: "progress_update", CreatedAt: at(9, 1)},
		{ActivityType: "progress_update", CreatedAt: at(10, 1)},
		{ActivityType: "login", CreatedAt: at(1, 1)},
	}

	got := ActivityTypesOverTime(activities, w, config.DefaultPalette)
	want := SeriesData{
		Dates: []string{"3/8", "3/9", "3/10"},
		Datasets: []Dataset{
			{Label: "progress_update", Data: []int{1, 1, 1}, BorderColor: "#3b82f6", BackgroundColor: "#3b82f6", Tension: 0.1},
			{Label: "search", Data: []int{0, 0, 2}, BorderColor: "#ef4444", BackgroundColor: "#ef4444", Tension: 0.1},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ActivityTypesOverTime mismatch (-want +got):\n%s", diff)
	}
}

func TestMostActiveUsers(t *testing.T) {
	w := NewWindow(at(10, 12), 1, time.UTC)
	activities := []models.UserActivity{
		{UserID: userBob, CreatedAt: at(10, 1)},
		{UserID: userAda, CreatedAt: at(10, 2)},
		{UserID: userAda, CreatedAt: at(10, 3)},
		{UserID: userCara, CreatedAt: at(9, 3)},
	}

	got := MostActiveUsers(activities, nil, w, 5)
	require.Len(t, got, 2)
	assert.Equal(t, userAda, got[0].UserID)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, userBob, got[1].UserID)
}

func TestActiveOverduePageCounts(t *testing.T) {
	w := NewWindow(at(10, 12), 3, time.UTC)
	deadlines := []models.Deadline{
		{ID: "a", TotalQuantity: 300},
		{ID: "b", TotalQuantity: 200},
		{ID: "c", TotalQuantity: 999},
	}
	statuses := []models.DeadlineStatus{
		{ID: 3, DeadlineID: "a", Status: "complete", UpdatedAt: at(10, 9)},
		{ID: 1, DeadlineID: "a", Status: "pending", UpdatedAt: at(7, 10)},
		{ID: 2, DeadlineID: "a", Status: "reading", UpdatedAt: at(8, 12)},
		{ID: 4, DeadlineID: "b", Status: "reading", UpdatedAt: at(1, 0)},
		{ID: 5, DeadlineID: "b", Status: "overdue", UpdatedAt: at(9, 0)},
	}

	got := ActiveOverduePageCounts(deadlines, statuses, w)
	assert.Equal(t, []string{"3/8", "3/9", "3/10"}, got.Dates)
	assert.Equal(t, []int{500, 300, 0}, got.ActivePages)
	assert.Equal(t, []int{0, 200, 200}, got.OverduePages)
}
