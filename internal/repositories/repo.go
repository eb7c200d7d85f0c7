package repositories

import (
	"context"

	"callscribe/internal/models"
)

// CallRepo is the durable store of call records: the single source of truth
// for record lifecycle state. All operations are atomic with respect to a
// single record.
type CallRepo interface {
	// Insert persists a new record and assigns its id and creation time.
	Insert(ctx context.Context, rec *models.CallRecord) error

	// GetByID returns utils.ErrNotFound (wrapped) for unknown ids.
	GetByID(ctx context.Context, id int64) (*models.CallRecord, error)

	// List returns all records ordered newest created_at first.
	List(ctx context.Context) ([]models.CallRecord, error)

	// ListPendingIDs returns the ids of all records still pending.
	ListPendingIDs(ctx context.Context) ([]int64, error)

	// CompletePending writes transcript, summary, and a terminal status in
	// one step, only if the record is still pending. It reports whether the
	// transition was applied; an already-terminal record is left untouched
	// and false is returned.
	CompletePending(ctx context.Context, id int64, transcript, summary string, status models.Status) (bool, error)
}
