package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"shelfcontrol/backend/analytics"
	"shelfcontrol/backend/models"
	"shelfcontrol/backend/repository"
	"shelfcontrol/backend/storage"
)

var errDatabase = errors.New("connection refused")

type fakeAnalyticsStore struct {
	activities []models.UserActivity
	searches   []models.UserSearch
	deadlines  []models.Deadline
	statuses   []models.DeadlineStatus
	books      []models.Book
	progress   []models.ProgressRecord
	err        error

	scopes []repository.Scope
}

func (f *fakeAnalyticsStore) record(scope repository.Scope) error {
	f.scopes = append(f.scopes, scope)
	return f.err
}

func (f *fakeAnalyticsStore) Activities(_ context.Context, scope repository.Scope) ([]models.UserActivity, error) {
	return f.activities, f.record(scope)
}

func (f *fakeAnalyticsStore) ActivitiesSince(_ context.Context, scope repository.Scope, since time.Time) ([]models.UserActivity, error) {
	var out []models.UserActivity
	for _, a := range f.activities {
		if !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, f.record(scope)
}

func (f *fakeAnalyticsStore) Searches(_ context.Context, scope repository.Scope) ([]models.UserSearch, error) {
	return f.searches, f.record(scope)
}

func (f *fakeAnalyticsStore) Deadlines(_ context.Context, scope repository.Scope) ([]models.Deadline, error) {
	return f.deadlines, f.record(scope)
}

func (f *fakeAnalyticsStore) Statuses(_ context.Context, scope repository.Scope) ([]models.DeadlineStatus, error) {
	return f.statuses, f.record(scope)
}

func (f *fakeAnalyticsStore) Books(_ context.Context, ids []string) ([]models.Book, error) {
	return f.books, f.err
}

func (f *fakeAnalyticsStore) ProgressBetween(_ context.Context, scope repository.Scope, from, to time.Time) ([]models.ProgressRecord, error) {
	var out []models.ProgressRecord
	for _, r := range f.progress {
		if !r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			out = append(out, r)
		}
	}
	return out, f.record(scope)
}

func (f *fakeAnalyticsStore) ProgressBefore(_ context.Context, ids []string, before time.Time) ([]models.ProgressRecord, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.ProgressRecord
	for _, r := range f.progress {
		if want[r.DeadlineID] && r.CreatedAt.Before(before) {
			out = append(out, r)
		}
	}
	return out, f.err
}

type fakeDirectory struct {
	profiles []models.Profile
	err      error
	excluded []string
}

func (f *fakeDirectory) ListUsers(_ context.Context, exclude []string) ([]models.UserInfo, error) {
	f.excluded = exclude
	var out []models.UserInfo
	for _, p := range f.profiles {
		out = append(out, p.Info())
	}
	return out, f.err
}

func (f *fakeDirectory) Find(_ context.Context, ids []string) ([]models.Profile, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Profile
	for _, p := range f.profiles {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, f.err
}

func (f *fakeDirectory) CreatedSince(_ context.Context, _ repository.Scope, since time.Time) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.profiles {
		if !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, f.err
}

type fakeRanking struct {
	readers []analytics.TopReader
	counts  []analytics.StatusCount
	offset  int
	exclude []string
}

func (f *fakeRanking) TopPagesReadToday(_ context.Context, limit, utcOffsetMinutes int, exclude []string) ([]analytics.TopReader, error) {
	f.offset = utcOffsetMinutes
	f.exclude = exclude
	return f.readers, nil
}

func (f *fakeRanking) DeadlineStatusCounts(_ context.Context, userIDs, exclude []string) ([]analytics.StatusCount, error) {
	f.exclude = exclude
	return f.counts, nil
}

type fakeSnapshots struct {
	days map[string][]models.ReaderRankSnapshot
	from string
}

func (f *fakeSnapshots) ReplaceDay(_ context.Context, rankDate string, rows []models.ReaderRankSnapshot) error {
	if f.days == nil {
		f.days = make(map[string][]models.ReaderRankSnapshot)
	}
	f.days[rankDate] = rows
	return nil
}

func (f *fakeSnapshots) Since(_ context.Context, fromDate string) ([]models.ReaderRankSnapshot, error) {
	f.from = fromDate
	return []models.ReaderRankSnapshot{}, nil
}

type fakeSigner struct{}

func (fakeSigner) SignedURL(key string, ttl time.Duration) (string, error) {
	return "https://cdn.test/" + key + "?ttl=" + ttl.String(), nil
}

func (fakeSigner) SignMany(_ context.Context, keys []string, ttl time.Duration) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k], _ = fakeSigner{}.SignedURL(k, ttl)
	}
	return out, nil
}

type memoryBucket struct {
	mu      sync.Mutex
	objects map[string]string
	removed []string
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: make(map[string]string)}
}

func (b *memoryBucket) Put(_ context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = string(data)
	return nil
}

func (b *memoryBucket) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (b *memoryBucket) Remove(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.objects, k)
		b.removed = append(b.removed, k)
	}
	return nil
}

func str(s string) *string { return &s }
