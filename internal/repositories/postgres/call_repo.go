package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"callscribe/internal/models"
	"callscribe/internal/repositories"
	"callscribe/internal/utils"
)

type callRepo struct {
	db *gorm.DB
}

// NewCallRepo migrates the call_records table if absent and returns the
// gorm-backed repository.
func NewCallRepo(db *gorm.DB) (repositories.CallRepo, error) {
	if err := db.AutoMigrate(&models.CallRecord{}); err != nil {
		return nil, fmt.Errorf("migrate call_records: %w", err)
	}
	return &callRepo{db: db}, nil
}

func (r *callRepo) Insert(ctx context.Context, rec *models.CallRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *callRepo) GetByID(ctx context.Context, id int64) (*models.CallRecord, error) {
	var row models.CallRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *callRepo) List(ctx context.Context) ([]models.CallRecord, error) {
	var rows []models.CallRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *callRepo) ListPendingIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.CallRecord{}).
		Where("status = ?", models.StatusPending).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// CompletePending relies on a single guarded UPDATE so concurrent processors
// racing on the same record resolve to a single terminal write.
func (r *callRepo) CompletePending(ctx context.Context, id int64, transcript, summary string, status models.Status) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("non-terminal status %q", status)
	}
	res := r.db.WithContext(ctx).
		Model(&models.CallRecord{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]any{
			"transcript": transcript,
			"summary":    summary,
			"status":     status,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
