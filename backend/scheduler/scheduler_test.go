package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"shelfcontrol/backend/config"
)

type fakeSnapshotter struct {
	calls int
	loc   *time.Location
	limit int
	err   error
}

func (f *fakeSnapshotter) SnapshotYesterday(_ context.Context, loc *time.Location, limit int) (string, int, error) {
	f.calls++
	f.loc = loc
	f.limit = limit
	return "2026-03-09", 3, f.err
}

func snapshotConfig() config.SnapshotConfig {
	return config.SnapshotConfig{Enabled: true, At: "00:05", Timezone: "America/New_York", Limit: 10}
}

func TestRunOnce(t *testing.T) {
	fake := &fakeSnapshotter{}
	s, err := New(fake, snapshotConfig(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "America/New_York", fake.loc.String())
	assert.Equal(t, 10, fake.limit)

	fake.err = errors.New("db down")
	assert.ErrorContains(t, s.RunOnce(context.Background()), "2026-03-09")
}

func TestStartStopDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, err := New(&fakeSnapshotter{}, snapshotConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	s.Stop()
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := snapshotConfig()
	cfg.Timezone = "Nowhere/Special"
	_, err := New(&fakeSnapshotter{}, cfg, nil)
	assert.Error(t, err)

	cfg = snapshotConfig()
	cfg.At = "25:99"
	s, err := New(&fakeSnapshotter{}, cfg, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}
