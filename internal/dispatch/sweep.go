package dispatch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"callscribe/internal/repositories"
)

// Sweeper periodically rescans the record store for pending records and runs
// the processing engine over each. It is the sole recovery path for records
// whose immediate trigger was lost, including everything created before a
// restart. Terminal records are never resubmitted.
type Sweeper struct {
	repo     repositories.CallRepo
	proc     Processor
	interval time.Duration
	logger   *logrus.Logger
}

func NewSweeper(repo repositories.CallRepo, proc Processor, interval time.Duration, logger *logrus.Logger) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Sweeper{repo: repo, proc: proc, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. The first pass happens immediately so
// records stranded by a crash are picked up as soon as the process is back.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass over all pending records, sequentially. A failure
// on one record never stops the scan.
func (s *Sweeper) Sweep(ctx context.Context) {
	ids, err := s.repo.ListPendingIDs(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("sweep could not list pending records")
		return
	}
	if len(ids) == 0 {
		return
	}
	s.logger.WithField("pending", len(ids)).Debug("sweep pass")

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := s.proc.Process(ctx, id); err != nil {
			s.logger.WithError(err).WithField("record_id", id).Warn("sweep processing failed")
		}
	}
}
