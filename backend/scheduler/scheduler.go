package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"shelfcontrol/backend/config"
)

const snapshotTimeout = 2 * time.Minute

// Snapshotter stores yesterday's top-reader ranking.
type Snapshotter interface {
	SnapshotYesterday(ctx context.Context, loc *time.Location, limit int) (string, int, error)
}

// Scheduler runs the daily reader-rank snapshot.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	snapshotter Snapshotter
	cfg         config.SnapshotConfig
	loc         *time.Location
	logger      *zap.Logger
}

// New creates a scheduler in the snapshot time zone.
func New(snapshotter Snapshotter, cfg config.SnapshotConfig, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("snapshot timezone: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:   s,
		snapshotter: snapshotter,
		cfg:         cfg,
		loc:         loc,
		logger:      logger.Named("scheduler"),
	}, nil
}

// Start schedules the daily job and returns immediately.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Day().At(s.cfg.At).Do(s.runSnapshot); err != nil {
		return fmt.Errorf("schedule snapshot at %q: %w", s.cfg.At, err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("snapshot scheduled", zap.String("at", s.cfg.At), zap.String("timezone", s.loc.String()))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce takes the snapshot immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	date, n, err := s.snapshotter.SnapshotYesterday(ctx, s.loc, s.cfg.Limit)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", date, err)
	}
	s.logger.Info("reader ranks stored", zap.String("rank_date", date), zap.Int("readers", n))
	return nil
}

func (s *Scheduler) runSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("reader rank snapshot failed", zap.Error(err))
	}
}
