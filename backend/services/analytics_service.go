package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"shelfcontrol/backend/analytics"
	"shelfcontrol/backend/config"
	"shelfcontrol/backend/models"
	"shelfcontrol/backend/repository"
)

// AnalyticsStore is the row source for the dashboard.
type AnalyticsStore interface {
	Activities(ctx context.Context, scope repository.Scope) ([]models.UserActivity, error)
	ActivitiesSince(ctx context.Context, scope repository.Scope, since time.Time) ([]models.UserActivity, error)
	Searches(ctx context.Context, scope repository.Scope) ([]models.UserSearch, error)
	Deadlines(ctx context.Context, scope repository.Scope) ([]models.Deadline, error)
	Statuses(ctx context.Context, scope repository.Scope) ([]models.DeadlineStatus, error)
	Books(ctx context.Context, ids []string) ([]models.Book, error)
	ProgressBetween(ctx context.Context, scope repository.Scope, from, to time.Time) ([]models.ProgressRecord, error)
	ProgressBefore(ctx context.Context, deadlineIDs []string, before time.Time) ([]models.ProgressRecord, error)
}

// UserDirectory resolves users for labels and pickers.
type UserDirectory interface {
	ListUsers(ctx context.Context, exclude []string) ([]models.UserInfo, error)
	Find(ctx context.Context, ids []string) ([]models.Profile, error)
	CreatedSince(ctx context.Context, scope repository.Scope, since time.Time) ([]models.Profile, error)
}

// RankingSource is implemented by the stored-procedure client.
type RankingSource interface {
	TopPagesReadToday(ctx context.Context, limit, utcOffsetMinutes int, exclude []string) ([]analytics.TopReader, error)
	DeadlineStatusCounts(ctx context.Context, userIDs, exclude []string) ([]analytics.StatusCount, error)
}

// SnapshotStore keeps daily reader rankings.
type SnapshotStore interface {
	ReplaceDay(ctx context.Context, rankDate string, rows []models.ReaderRankSnapshot) error
	Since(ctx context.Context, fromDate string) ([]models.ReaderRankSnapshot, error)
}

// URLSigner signs avatar object keys.
type URLSigner interface {
	SignMany(ctx context.Context, keys []string, ttl time.Duration) (map[string]string, error)
}

// AnalyticsService answers dashboard queries. Every query method logs failures
// and returns an empty (or zero-filled) result instead of an error.
type AnalyticsService struct {
	store     AnalyticsStore
	users     UserDirectory
	snapshots SnapshotStore
	ranking   RankingSource
	signer    URLSigner
	cfg       config.AnalyticsConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewAnalyticsService(store AnalyticsStore, users UserDirectory, snapshots SnapshotStore, cfg config.AnalyticsConfig, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		store:     store,
		users:     users,
		snapshots: snapshots,
		cfg:       cfg,
		logger:    logger.Named("analytics"),
		now:       time.Now,
	}
}

// UseRanking routes top readers and status counts through the stored procedures.
func (s *AnalyticsService) UseRanking(r RankingSource) {
	s.ranking = r
}

// UseSigner enables signed avatar URLs in top-reader rows.
func (s *AnalyticsService) UseSigner(signer URLSigner) {
	s.signer = signer
}

// SetClock replaces time.Now.
func (s *AnalyticsService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *AnalyticsService) WindowDays() int {
	return s.cfg.WindowDays
}

func (s *AnalyticsService) scope(userIDs []string) repository.Scope {
	return repository.Scope{UserIDs: userIDs, ExcludeIDs: s.cfg.TestUserIDs}
}

func (s *AnalyticsService) window(days int, loc *time.Location) analytics.Window {
	return analytics.NewWindow(s.now(), days, loc)
}

func (s *AnalyticsService) fail(op string, err error) {
	s.logger.Error("analytics query failed", zap.String("op", op), zap.Error(err))
}

// Users lists every non-test user ordered by email.
func (s *AnalyticsService) Users(ctx context.Context) []models.UserInfo {
	users, err := s.users.ListUsers(ctx, s.cfg.TestUserIDs)
	if err != nil {
		s.fail("list_users", err)
		return []models.UserInfo{}
	}
	return users
}

func (s *AnalyticsService) SearchUsers(ctx context.Context, search, excludeID string) []models.UserInfo {
	return analytics.SearchUsers(s.Users(ctx), search, excludeID)
}

func (s *AnalyticsService) ActivityTypes(ctx context.Context, userIDs []string) []analytics.ActivityTypeCount {
	activities, err := s.store.Activities(ctx, s.scope(userIDs))
	if err != nil {
		s.fail("activity_types", err)
		return []analytics.ActivityTypeCount{}
	}
	return analytics.ActivityTypesBreakdown(activities)
}

// ActivityTypesOverTime draws one line per type; types narrows the datasets
// when non-empty.
func (s *AnalyticsService) ActivityTypesOverTime(ctx context.Context, userIDs []string, days int, loc *time.Location, types []string) analytics.SeriesData {
	w := s.window(days, loc)
	activities, err := s.store.ActivitiesSince(ctx, s.scope(userIDs), w.Start())
	if err != nil {
		s.fail("activity_types_over_time", err)
		return analytics.EmptySeries(w)
	}
	series := analytics.ActivityTypesOverTime(activities, w, s.cfg.Palette)
	if len(types) > 0 {
		series.Datasets = analytics.FilterDatasets(series.Datasets, types)
	}
	return series
}

func (s *AnalyticsService) Searches(ctx context.Context, userIDs []string) analytics.SearchAnalyticsData {
	searches, err := s.store.Searches(ctx, s.scope(userIDs))
	if err != nil {
		s.fail("searches", err)
		return analytics.EmptySearchAnalytics()
	}
	return analytics.SearchAnalytics(searches)
}

func (s *AnalyticsService) DeadlineStats(ctx context.Context, userIDs []string) analytics.DeadlineStatsData {
	scope := s.scope(userIDs)
	deadlines, err := s.store.Deadlines(ctx, scope)
	if err != nil {
		s.fail("deadline_stats", err)
		return analytics.EmptyDeadlineStats()
	}
	statuses, err := s.store.Statuses(ctx, scope)
	if err != nil {
		s.fail("deadline_stats", err)
		return analytics.EmptyDeadlineStats()
	}
	return analytics.DeadlineStats(deadlines, statuses)
}

func (s *AnalyticsService) DeadlinesOverTime(ctx context.Context, userIDs []string) []analytics.DateCount {
	deadlines, err := s.store.Deadlines(ctx, s.scope(userIDs))
	if err != nil {
		s.fail("deadlines_over_time", err)
		return []analytics.DateCount{}
	}
	return analytics.DeadlinesOverTime(deadlines)
}

func (s *AnalyticsService) DeadlinesByStatus(ctx context.Context, userIDs []string) []analytics.StatusCount {
	if s.ranking != nil {
		counts, err := s.ranking.DeadlineStatusCounts(ctx, userIDs, s.cfg.TestUserIDs)
		if err != nil {
			s.fail("deadlines_by_status", err)
			return []analytics.StatusCount{}
		}
		return counts
	}

	scope := s.scope(userIDs)
	deadlines, err := s.store.Deadlines(ctx, scope)
	if err != nil {
		s.fail("deadlines_by_status", err)
		return []analytics.StatusCount{}
	}
	statuses, err := s.store.Statuses(ctx, scope)
	if err != nil {
		s.fail("deadlines_by_status", err)
		return []analytics.StatusCount{}
	}
	return analytics.DeadlinesByStatus(deadlines, statuses)
}

func (s *AnalyticsService) ActiveOverdue(ctx context.Context, userIDs []string, days int, loc *time.Location) analytics.ActiveOverdueData {
	w := s.window(days, loc)
	scope := s.scope(userIDs)
	deadlines, err := s.store.Deadlines(ctx, scope)
	if err != nil {
		s.fail("active_overdue", err)
		return analytics.EmptyActiveOverdue(w)
	}
	statuses, err := s.store.Statuses(ctx, scope)
	if err != nil {
		s.fail("active_overdue", err)
		return analytics.EmptyActiveOverdue(w)
	}
	return analytics.ActiveOverduePageCounts(deadlines, statuses, w)
}

func (s *AnalyticsService) FormatDistribution(ctx context.Context, userIDs []string) []analytics.FormatCount {
	deadlines, err := s.store.Deadlines(ctx, s.scope(userIDs))
	if err != nil {
		s.fail("format_distribution", err)
		return []analytics.FormatCount{}
	}
	return analytics.FormatDistribution(deadlines)
}

// ProgressOverTime is the pages-read-per-day chart over the configured window.
func (s *AnalyticsService) ProgressOverTime(ctx context.Context, userIDs []string, loc *time.Location) analytics.SeriesData {
	w := s.window(s.cfg.WindowDays, loc)
	records, baselines, err := s.progress(ctx, s.scope(userIDs), w)
	if err != nil {
		s.fail("progress_over_time", err)
		return analytics.EmptySeries(w)
	}

	users, err := s.userInfo(ctx, ownersOf(records))
	if err != nil {
		s.fail("progress_over_time", err)
		return analytics.EmptySeries(w)
	}
	return analytics.ProgressOverTime(records, baselines, users, w, s.cfg.Palette)
}

func (s *AnalyticsService) ProfilesCreated(ctx context.Context, days int, loc *time.Location) analytics.CountSeries {
	w := s.window(days, loc)
	profiles, err := s.users.CreatedSince(ctx, s.scope(nil), w.Start())
	if err != nil {
		s.fail("profiles_created", err)
		return analytics.EmptyCountSeries(w)
	}
	return analytics.ProfilesCreatedOverTime(profiles, w)
}

func (s *AnalyticsService) TopBooks(ctx context.Context, limit int) []analytics.TopBook {
	deadlines, err := s.store.Deadlines(ctx, s.scope(nil))
	if err != nil {
		s.fail("top_books", err)
		return []analytics.TopBook{}
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, d := range deadlines {
		if d.BookID == nil {
			continue
		}
		if _, ok := seen[*d.BookID]; !ok {
			seen[*d.BookID] = struct{}{}
			ids = append(ids, *d.BookID)
		}
	}
	books, err := s.store.Books(ctx, ids)
	if err != nil {
		s.fail("top_books", err)
		return []analytics.TopBook{}
	}
	return analytics.TopBooks(deadlines, books, limit)
}

func (s *AnalyticsService) TopUsers(ctx context.Context, limit int) []analytics.UserCount {
	deadlines, err := s.store.Deadlines(ctx, s.scope(nil))
	if err != nil {
		s.fail("top_users", err)
		return []analytics.UserCount{}
	}
	return analytics.TopUsersByDeadlines(deadlines, s.Users(ctx), limit)
}

func (s *AnalyticsService) MostActiveToday(ctx context.Context, limit int, loc *time.Location) []analytics.UserCount {
	w := s.window(1, loc)
	activities, err := s.store.ActivitiesSince(ctx, s.scope(nil), w.Start())
	if err != nil {
		s.fail("most_active_today", err)
		return []analytics.UserCount{}
	}
	return analytics.MostActiveUsers(activities, s.Users(ctx), w, limit)
}

// TopReadersToday ranks today's readers with their rank yesterday and a
// signed avatar URL.
func (s *AnalyticsService) TopReadersToday(ctx context.Context, limit int, loc *time.Location) []analytics.TopReader {
	readers, err := s.topReaders(ctx, limit, loc)
	if err != nil {
		s.fail("top_readers_today", err)
		return []analytics.TopReader{}
	}

	ids := make([]string, 0, len(readers))
	for _, r := range readers {
		ids = append(ids, r.UserID)
	}
	profiles, err := s.users.Find(ctx, ids)
	if err != nil {
		s.fail("top_readers_today", err)
		return readers
	}

	byID := make(map[string]models.Profile, len(profiles))
	var keys []string
	for _, p := range profiles {
		byID[p.ID] = p
		if p.AvatarURL != nil && *p.AvatarURL != "" {
			keys = append(keys, *p.AvatarURL)
		}
	}

	var urls map[string]string
	if s.signer != nil && len(keys) > 0 {
		urls, err = s.signer.SignMany(ctx, keys, AvatarURLTTL)
		if err != nil {
			s.logger.Warn("sign avatar urls", zap.Error(err))
		}
	}

	for i := range readers {
		p, ok := byID[readers[i].UserID]
		if !ok {
			continue
		}
		readers[i].Email = p.Email
		readers[i].Username = p.Username
		readers[i].FirstName = p.FirstName
		readers[i].LastName = p.LastName
		if p.AvatarURL != nil {
			if u, ok := urls[*p.AvatarURL]; ok {
				readers[i].AvatarURL = &u
			}
		}
	}
	return readers
}

func (s *AnalyticsService) topReaders(ctx context.Context, limit int, loc *time.Location) ([]analytics.TopReader, error) {
	if s.ranking != nil {
		_, offset := s.now().In(loc).Zone()
		return s.ranking.TopPagesReadToday(ctx, limit, offset/60, s.cfg.TestUserIDs)
	}

	w := s.window(2, loc)
	records, baselines, err := s.progress(ctx, s.scope(nil), w)
	if err != nil {
		return nil, err
	}
	return analytics.TopPagesReadToday(records, baselines, nil, w, limit), nil
}

// ReaderRanks returns stored rankings for the last days local dates.
func (s *AnalyticsService) ReaderRanks(ctx context.Context, days int, loc *time.Location) []models.ReaderRankSnapshot {
	w := s.window(days, loc)
	rows, err := s.snapshots.Since(ctx, w.Keys()[0])
	if err != nil {
		s.fail("reader_ranks", err)
		return []models.ReaderRankSnapshot{}
	}
	return rows
}

// SnapshotYesterday stores yesterday's top-reader ranking and returns the date
// it was stored under.
func (s *AnalyticsService) SnapshotYesterday(ctx context.Context, loc *time.Location, limit int) (string, int, error) {
	w := s.window(2, loc)
	yesterday := w.Keys()[0]

	records, baselines, err := s.progress(ctx, s.scope(nil), w)
	if err != nil {
		return yesterday, 0, err
	}
	daily := analytics.PagesReadPerDay(records, baselines, loc)
	ranking := analytics.RankReaders(analytics.PagesReadOn(daily, yesterday), limit)

	rows := make([]models.ReaderRankSnapshot, 0, len(ranking))
	for _, e := range ranking {
		rows = append(rows, models.ReaderRankSnapshot{UserID: e.UserID, Rank: e.Rank, PagesRead: e.PagesRead})
	}
	if err := s.snapshots.ReplaceDay(ctx, yesterday, rows); err != nil {
		return yesterday, 0, err
	}
	return yesterday, len(rows), nil
}

// Dashboard is the data written to the analytics workbook.
type Dashboard struct {
	GeneratedAt   time.Time
	ActivityTypes []analytics.ActivityTypeCount
	Searches      analytics.SearchAnalyticsData
	Statuses      []analytics.StatusCount
	Progress      analytics.SeriesData
}

func (s *AnalyticsService) Dashboard(ctx context.Context, userIDs []string, loc *time.Location) Dashboard {
	return Dashboard{
		GeneratedAt:   s.now(),
		ActivityTypes: s.ActivityTypes(ctx, userIDs),
		Searches:      s.Searches(ctx, userIDs),
		Statuses:      s.DeadlinesByStatus(ctx, userIDs),
		Progress:      s.ProgressOverTime(ctx, userIDs, loc),
	}
}

func (s *AnalyticsService) progress(ctx context.Context, scope repository.Scope, w analytics.Window) ([]models.ProgressRecord, map[string]int, error) {
	records, err := s.store.ProgressBetween(ctx, scope, w.Start(), w.End())
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, r := range records {
		if _, ok := seen[r.DeadlineID]; !ok {
			seen[r.DeadlineID] = struct{}{}
			ids = append(ids, r.DeadlineID)
		}
	}
	sort.Strings(ids)

	history, err := s.store.ProgressBefore(ctx, ids, w.Start())
	if err != nil {
		return nil, nil, err
	}
	return records, analytics.Baselines(history, w.Location()), nil
}

func (s *AnalyticsService) userInfo(ctx context.Context, ids []string) (map[string]models.UserInfo, error) {
	profiles, err := s.users.Find(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.UserInfo, len(profiles))
	for _, p := range profiles {
		out[p.ID] = p.Info()
	}
	return out, nil
}

func ownersOf(records []models.ProgressRecord) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, r := range records {
		if _, ok := seen[r.UserID]; !ok {
			seen[r.UserID] = struct{}{}
			ids = append(ids, r.UserID)
		}
	}
	return ids
}
