package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper is the part of the session registry the sweeper drives.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// SessionSweeper periodically retires idle session observers.
type SessionSweeper struct {
	cron     *cron.Cron
	sweeper  Sweeper
	idle     time.Duration
	logger   *zap.Logger
	schedule string
}

// NewSessionSweeper validates the schedule. An idle of zero disables
// sweeping and Start becomes a no-op.
func NewSessionSweeper(sweeper Sweeper, schedule string, idle time.Duration, logger *zap.Logger) (*SessionSweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SessionSweeper{
		cron:     cron.New(),
		sweeper:  sweeper,
		idle:     idle,
		logger:   logger,
		schedule: schedule,
	}
	if idle <= 0 {
		return s, nil
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce performs a single sweep.
func (s *SessionSweeper) RunOnce() {
	if s.idle <= 0 {
		return
	}
	if removed := s.sweeper.Sweep(s.idle); removed > 0 {
		s.logger.Info("session observers swept", zap.Int("removed", removed))
	}
}

// Start runs the schedule in the background.
func (s *SessionSweeper) Start() {
	if s.idle <= 0 {
		s.logger.Info("session sweeper disabled")
		return
	}
	s.logger.Info("session sweeper started", zap.String("schedule", s.schedule), zap.Duration("idle", s.idle))
	s.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *SessionSweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
