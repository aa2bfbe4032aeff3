package service

import (
	"context"
	"time"

	infraprom "github.com/promoit/shortlink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// SweepRunner is the slice of the engine the sweeper drives.
type SweepRunner interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// ExpirySweeper runs the engine's sweep on a fixed interval. A failed sweep
// is logged and the schedule continues; it is never fatal to the process.
type ExpirySweeper struct {
	logger   *zap.Logger
	runner   SweepRunner
	interval time.Duration
	stopChan chan struct{}
}

const defaultSweepInterval = time.Hour

// NewExpirySweeper creates a sweeper firing at the given interval.
func NewExpirySweeper(logger *zap.Logger, runner SweepRunner, interval time.Duration) *ExpirySweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &ExpirySweeper{
		logger:   logger,
		runner:   runner,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep in the background.
func (s *ExpirySweeper) Start() {
	go s.run()
}

// Stop halts the schedule. Safe to call once.
func (s *ExpirySweeper) Stop() {
	close(s.stopChan)
}

func (s *ExpirySweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepOnce()
		case <-s.stopChan:
			s.logger.Info("expiry sweeper stopped")
			return
		}
	}
}

func (s *ExpirySweeper) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	removed, err := s.runner.Sweep(ctx, time.Now())
	if err != nil {
		s.logger.Error("scheduled sweep failed", zap.Error(err))
		return
	}

	if removed > 0 {
		infraprom.ExpiredLinksRemovedTotal.Add(float64(removed))
		s.logger.Info("scheduled sweep removed expired links", zap.Int("count", removed))
	}
}
