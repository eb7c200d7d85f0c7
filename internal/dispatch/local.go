package dispatch

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// LocalPool is an in-process dispatcher: a bounded channel drained by a
// fixed set of worker goroutines. Used when no Redis broker is configured.
type LocalPool struct {
	proc    Processor
	workers int
	queue   chan int64
	logger  *logrus.Logger
}

var errQueueFull = errors.New("dispatch queue full")

func NewLocalPool(proc Processor, workers, queueSize int, logger *logrus.Logger) *LocalPool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &LocalPool{
		proc:    proc,
		workers: workers,
		queue:   make(chan int64, queueSize),
		logger:  logger,
	}
}

// Start launches the workers. They exit when ctx is cancelled.
func (p *LocalPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.run(ctx)
	}
}

func (p *LocalPool) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-p.queue:
			if err := p.proc.Process(ctx, id); err != nil {
				p.logger.WithError(err).WithField("record_id", id).Warn("background processing failed, sweep will retry")
			}
		}
	}
}

// Submit enqueues without blocking. A full queue drops the submission; the
// record stays pending and the sweep picks it up.
func (p *LocalPool) Submit(ctx context.Context, id int64) error {
	select {
	case p.queue <- id:
		return nil
	default:
		return errQueueFull
	}
}
