package services

import (
	"context"
	"errors"

	"callscribe/internal/models"
	"callscribe/internal/repositories"
	"callscribe/internal/utils"
)

// CallService backs the read API. Every read goes straight to the record
// store; no state is cached across callers.
type CallService interface {
	List(ctx context.Context) ([]models.CallRecord, error)
	Get(ctx context.Context, id int64) (*models.CallRecord, error)
}

type callService struct {
	repo repositories.CallRepo
}

func NewCallService(repo repositories.CallRepo) CallService {
	return &callService{repo: repo}
}

func (s *callService) List(ctx context.Context) ([]models.CallRecord, error) {
	const op = "CallService.List"

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list calls", err)
	}
	return rows, nil
}

func (s *callService) Get(ctx context.Context, id int64) (*models.CallRecord, error) {
	const op = "CallService.Get"

	rec, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "call not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load call", err)
	}
	return rec, nil
}
