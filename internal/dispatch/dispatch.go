// Package dispatch carries the two triggers into the processing engine: the
// best-effort immediate submission fired after ingestion, and the periodic
// sweep that resubmits anything still pending. Submissions may be lost (full
// queue, dead broker, process crash); the sweep is the correctness backstop.
package dispatch

import "context"

// Processor is the processing engine entry point.
type Processor interface {
	Process(ctx context.Context, id int64) error
}

// Dispatcher accepts a record id for background processing. Submit must not
// block the caller; the submitting adapter never observes the result.
type Dispatcher interface {
	Submit(ctx context.Context, id int64) error
}
