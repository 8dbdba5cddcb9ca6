package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"shelfcontrol/backend/analytics"
	"shelfcontrol/backend/config"
	"shelfcontrol/backend/models"
	"shelfcontrol/backend/repository"
)

const (
	adaID  = "0b0c6c1e-3d59-4b47-8d7c-4cde3d2b3a11"
	bobID  = "9f1d2c3b-1111-4222-8333-444455556666"
	testID = "11111111-1111-1111-1111-111111111111"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

func analyticsConfig(days int) config.AnalyticsConfig {
	cfg := config.DefaultAnalytics()
	cfg.WindowDays = days
	cfg.TestUserIDs = []string{testID}
	return cfg
}

func progressStore() *fakeAnalyticsStore {
	return &fakeAnalyticsStore{
		progress: []models.ProgressRecord{
			{DeadlineID: "d1", UserID: adaID, CurrentProgress: 40, CreatedAt: at(5, 12, 0)},
			{DeadlineID: "d1", UserID: adaID, CurrentProgress: 60, CreatedAt: at(9, 12, 0)},
			{DeadlineID: "d1", UserID: adaID, CurrentProgress: 100, CreatedAt: at(10, 12, 0)},
			{DeadlineID: "d2", UserID: bobID, CurrentProgress: 50, CreatedAt: at(10, 13, 0)},
		},
	}
}

func directory() *fakeDirectory {
	return &fakeDirectory{profiles: []models.Profile{
		{ID: adaID, FirstName: str("Ada"), AvatarURL: str("ada.png"), CreatedAt: at(9, 1, 0)},
		{ID: bobID, Username: str("bob"), CreatedAt: at(1, 1, 0)},
	}}
}

func newAnalytics(store *fakeAnalyticsStore, users *fakeDirectory, snapshots *fakeSnapshots, days int, now time.Time) *AnalyticsService {
	svc := NewAnalyticsService(store, users, snapshots, analyticsConfig(days), zap.NewNop())
	svc.SetClock(func() time.Time { return now })
	return svc
}

func TestAnalyticsServiceReturnsEmptyOnError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := &fakeAnalyticsStore{err: errDatabase}
	users := &fakeDirectory{err: errDatabase}
	svc := NewAnalyticsService(store, users, &fakeSnapshots{}, analyticsConfig(30), zap.New(core))
	svc.SetClock(func() time.Time { return at(10, 12, 0) })
	ctx := context.Background()

	progress := svc.ProgressOverTime(ctx, nil, time.UTC)
	assert.Len(t, progress.Dates, 30)
	assert.NotNil(t, progress.Datasets)
	assert.Empty(t, progress.Datasets)

	overdue := svc.ActiveOverdue(ctx, nil, 14, time.UTC)
	assert.Len(t, overdue.Dates, 14)
	assert.Equal(t, make([]int, 14), overdue.ActivePages)

	assert.Equal(t, []analytics.ActivityTypeCount{}, svc.ActivityTypes(ctx, nil))
	assert.Equal(t, analytics.EmptySearchAnalytics(), svc.Searches(ctx, nil))
	assert.Equal(t, analytics.EmptyDeadlineStats(), svc.DeadlineStats(ctx, nil))
	assert.Empty(t, svc.TopReadersToday(ctx, 10, time.UTC))
	assert.Empty(t, svc.Users(ctx))
	assert.Len(t, svc.ProfilesCreated(ctx, 30, time.UTC).Counts, 30)

	require.NotZero(t, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "analytics query failed", entry.Message)
	assert.Equal(t, "progress_over_time", entry.ContextMap()["op"])
}

func TestAnalyticsServiceExcludesTestUsers(t *testing.T) {
	store := &fakeAnalyticsStore{}
	users := &fakeDirectory{}
	svc := newAnalytics(store, users, &fakeSnapshots{}, 30, at(10, 12, 0))
	ctx := context.Background()

	svc.ActivityTypes(ctx, []string{adaID})
	svc.Searches(ctx, nil)
	svc.Users(ctx)

	require.Len(t, store.scopes, 2)
	assert.Equal(t, repository.Scope{UserIDs: []string{adaID}, ExcludeIDs: []string{testID}}, store.scopes[0])
	assert.Equal(t, repository.Scope{ExcludeIDs: []string{testID}}, store.scopes[1])
	assert.Equal(t, []string{testID}, users.excluded)
}

func TestAnalyticsServiceProgressUsesBaselines(t *testing.T) {
	svc := newAnalytics(progressStore(), directory(), &fakeSnapshots{}, 3, at(10, 20, 0))

	got := svc.ProgressOverTime(context.Background(), nil, time.UTC)

	assert.Equal(t, []string{"3/8", "3/9", "3/10"}, got.Dates)
	require.Len(t, got.Datasets, 2)
	assert.Equal(t, "Ada", got.Datasets[0].Label)
	assert.Equal(t, []int{0, 20, 40}, got.Datasets[0].Data)
	assert.Equal(t, "bob", got.Datasets[1].Label)
	assert.Equal(t, []int{0, 0, 50}, got.Datasets[1].Data)
}

func TestAnalyticsServiceTopReadersToday(t *testing.T) {
	svc := newAnalytics(progressStore(), directory(), &fakeSnapshots{}, 30, at(10, 20, 0))
	svc.UseSigner(fakeSigner{})

	readers := svc.TopReadersToday(context.Background(), 10, time.UTC)

	require.Len(t, readers, 2)
	assert.Equal(t, bobID, readers[0].UserID)
	assert.Equal(t, 50, readers[0].PagesRead)
	assert.Nil(t, readers[0].YesterdayRank)
	assert.Equal(t, str("bob"), readers[0].Username)
	assert.Nil(t, readers[0].AvatarURL)

	assert.Equal(t, adaID, readers[1].UserID)
	assert.Equal(t, 40, readers[1].PagesRead)
	require.NotNil(t, readers[1].YesterdayRank)
	assert.Equal(t, 1, *readers[1].YesterdayRank)
	require.NotNil(t, readers[1].AvatarURL)
	assert.Equal(t, "https://cdn.test/ada.png?ttl=2160h0m0s", *readers[1].AvatarURL)
}

func TestAnalyticsServiceUsesRankingSource(t *testing.T) {
	rank := 3
	ranking := &fakeRanking{
		readers: []analytics.TopReader{{UserID: adaID, PagesRead: 12, YesterdayRank: &rank}},
		counts:  []analytics.StatusCount{{Status: models.StatusReading, Count: 4}},
	}
	svc := newAnalytics(&fakeAnalyticsStore{err: errDatabase}, directory(), &fakeSnapshots{}, 30, at(10, 20, 0))
	svc.UseRanking(ranking)
	ctx := context.Background()

	readers := svc.TopReadersToday(ctx, 10, time.FixedZone("UTC-05:00", -5*3600))
	require.Len(t, readers, 1)
	assert.Equal(t, str("Ada"), readers[0].FirstName)
	assert.Equal(t, -300, ranking.offset)
	assert.Equal(t, []string{testID}, ranking.exclude)

	assert.Equal(t, ranking.counts, svc.DeadlinesByStatus(ctx, nil))
}

func TestAnalyticsServiceSnapshotYesterday(t *testing.T) {
	snapshots := &fakeSnapshots{}
	svc := newAnalytics(progressStore(), directory(), snapshots, 30, at(11, 0, 5))

	date, n, err := svc.SnapshotYesterday(context.Background(), time.UTC, 10)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", date)
	assert.Equal(t, 2, n)

	rows := snapshots.days["2026-03-10"]
	require.Len(t, rows, 2)
	assert.Equal(t, models.ReaderRankSnapshot{UserID: bobID, Rank: 1, PagesRead: 50}, rows[0])
	assert.Equal(t, models.ReaderRankSnapshot{UserID: adaID, Rank: 2, PagesRead: 40}, rows[1])
}

func TestAnalyticsServiceReaderRanks(t *testing.T) {
	snapshots := &fakeSnapshots{}
	svc := newAnalytics(&fakeAnalyticsStore{}, directory(), snapshots, 30, at(10, 20, 0))

	assert.NotNil(t, svc.ReaderRanks(context.Background(), 7, time.UTC))
	assert.Equal(t, "2026-03-04", snapshots.from)
}

func TestAnalyticsServiceActivityTypesOverTimeFilter(t *testing.T) {
	store := &fakeAnalyticsStore{activities: []models.UserActivity{
		{UserID: adaID, ActivityType: "search", CreatedAt: at(10, 1, 0)},
		{UserID: adaID, ActivityType: "login", CreatedAt: at(10, 2, 0)},
		{UserID: adaID, ActivityType: "login", CreatedAt: at(2, 2, 0)},
	}}
	svc := newAnalytics(store, directory(), &fakeSnapshots{}, 30, at(10, 20, 0))

	all := svc.ActivityTypesOverTime(context.Background(), nil, 7, time.UTC, nil)
	require.Len(t, all.Datasets, 2)
	assert.Len(t, all.Dates, 7)

	only := svc.ActivityTypesOverTime(context.Background(), nil, 7, time.UTC, []string{"search"})
	require.Len(t, only.Datasets, 1)
	assert.Equal(t, "search", only.Datasets[0].Label)
}

func TestAnalyticsServiceDashboard(t *testing.T) {
	store := progressStore()
	store.activities = []models.UserActivity{{UserID: adaID, ActivityType: "search", CreatedAt: at(10, 1, 0)}}
	svc := newAnalytics(store, directory(), &fakeSnapshots{}, 3, at(10, 20, 0))

	d := svc.Dashboard(context.Background(), nil, time.UTC)
	assert.Equal(t, at(10, 20, 0), d.GeneratedAt)
	assert.Len(t, d.ActivityTypes, 1)
	assert.Len(t, d.Progress.Datasets, 2)
}
