package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peermock/backend/internal/scheduling"
)

const sweepBatchSize = 100

// NoShowSweeper periodically closes interviews whose scheduled time passed
// without anyone completing or cancelling them.
type NoShowSweeper struct {
	svc      *scheduling.Service
	grace    time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewNoShowSweeper creates a sweeper. Grace is how long past the scheduled
// time an interview may sit before being marked no_show.
func NewNoShowSweeper(svc *scheduling.Service, grace, interval time.Duration, logger *zap.Logger) *NoShowSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoShowSweeper{svc: svc, grace: grace, interval: interval, logger: logger}
}

// Run sweeps on a ticker until ctx is done.
func (s *NoShowSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("no-show sweeper stopping")
			return
		case <-ticker.C:
			swept, err := s.svc.SweepNoShows(ctx, s.grace, sweepBatchSize)
			if err != nil {
				s.logger.Warn("no-show sweep failed", zap.Error(err))
				continue
			}
			if swept > 0 {
				s.logger.Info("no-show sweep closed interviews", zap.Int("count", swept))
			}
		}
	}
}
