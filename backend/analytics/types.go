// Package analytics turns raw activity, search, deadline and progress rows into
// the series and breakdowns drawn by the admin dashboard. Every function here is
// pure: the caller fetches the rows and supplies the clock through a Window.
package analytics

type ActivityTypeCount struct {
	ActivityType string `json:"activity_type"`
	Count        int    `json:"count"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type FormatCount struct {
	Format string `json:"format"`
	Count  int    `json:"count"`
}

type SearchAnalyticsData struct {
	TotalSearches  int          `json:"total_searches"`
	PopularQueries []QueryCount `json:"popular_queries"`
	SearchesByDate []DateCount  `json:"searches_by_date"`
}

type DeadlineStatsData struct {
	StatusBreakdown []StatusCount `json:"status_breakdown"`
	DeadlinesByDate []DateCount   `json:"deadlines_by_date"`
	TotalDeadlines  int           `json:"total_deadlines"`
}

// Dataset is one line of a line chart.
type Dataset struct {
	Label           string  `json:"label"`
	Data            []int   `json:"data"`
	BorderColor     string  `json:"borderColor"`
	BackgroundColor string  `json:"backgroundColor"`
	Tension         float64 `json:"tension"`
}

// SeriesData is a multi-line chart over a window.
type SeriesData struct {
	Dates    []string  `json:"dates"`
	Datasets []Dataset `json:"datasets"`
}

// CountSeries is a single bar series over a window.
type CountSeries struct {
	Dates  []string `json:"dates"`
	Counts []int    `json:"counts"`
}

type ActiveOverdueData struct {
	Dates        []string `json:"dates"`
	ActivePages  []int    `json:"activePages"`
	OverduePages []int    `json:"overduePages"`
}

type TopBook struct {
	BookID        string  `json:"book_id"`
	Title         string  `json:"title"`
	CoverImageURL *string `json:"cover_image_url"`
	DeadlineCount int     `json:"deadline_count"`
}

type UserCount struct {
	UserID    string  `json:"user_id"`
	Email     *string `json:"email"`
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Count     int     `json:"count"`
}

// RankEntry is a user's position in a day's pages-read ranking.
type RankEntry struct {
	UserID    string `json:"user_id"`
	PagesRead int    `json:"pages_read"`
	Rank      int    `json:"rank"`
}

// TopReader is a row of the "top readers today" list. YesterdayRank is nil
// when the user was not in yesterday's list.
type TopReader struct {
	UserID        string  `json:"user_id"`
	Email         *string `json:"email"`
	Username      *string `json:"username"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	AvatarURL     *string `json:"avatar_url"`
	PagesRead     int     `json:"pages_read"`
	YesterdayRank *int    `json:"yesterday_rank"`
}

// EmptySeries is the zero-filled result for a window with no rows.
func EmptySeries(w Window) SeriesData {
	return SeriesData{Dates: w.Labels(), Datasets: []Dataset{}}
}

func EmptySearchAnalytics() SearchAnalyticsData {
	return SearchAnalyticsData{PopularQueries: []QueryCount{}, SearchesByDate: []DateCount{}}
}

func EmptyDeadlineStats() DeadlineStatsData {
	return DeadlineStatsData{StatusBreakdown: []StatusCount{}, DeadlinesByDate: []DateCount{}}
}

func EmptyCountSeries(w Window) CountSeries {
	return CountSeries{Dates: w.Labels(), Counts: make([]int, w.Len())}
}

func EmptyActiveOverdue(w Window) ActiveOverdueData {
	return ActiveOverdueData{Dates: w.Labels(), ActivePages: make([]int, w.Len()), OverduePages: make([]int, w.Len())}
}
