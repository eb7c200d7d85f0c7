// Package memory provides an in-memory CallRepo used by tests and by
// single-process development runs where no database is available.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"callscribe/internal/models"
	"callscribe/internal/repositories"
	"callscribe/internal/utils"
)

type callRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.CallRecord
}

func NewCallRepo() repositories.CallRepo {
	return &callRepo{nextID: 1, rows: make(map[int64]models.CallRecord)}
}

func (r *callRepo) Insert(ctx context.Context, rec *models.CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = r.nextID
	r.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	r.rows[rec.ID] = *rec
	return nil
}

func (r *callRepo) GetByID(ctx context.Context, id int64) (*models.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &row, nil
}

func (r *callRepo) List(ctx context.Context) ([]models.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.CallRecord, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *callRepo) ListPendingIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []int64
	for id, row := range r.rows {
		if row.Status == models.StatusPending {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *callRepo) CompletePending(ctx context.Context, id int64, transcript, summary string, status models.Status) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("non-terminal status %q", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok || row.Status != models.StatusPending {
		return false, nil
	}
	row.Transcript = transcript
	row.Summary = summary
	row.Status = status
	r.rows[id] = row
	return true, nil
}
