package services

import (
	"context"
	"testing"

	"callscribe/internal/models"
	"callscribe/internal/repositories/memory"
	"callscribe/internal/utils"
)

func TestCallService_GetUnknownIsNotFound(t *testing.T) {
	svc := NewCallService(memory.NewCallRepo())
	_, err := svc.Get(context.Background(), 7)
	if err == nil || !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCallService_ListAndGet(t *testing.T) {
	repo := memory.NewCallRepo()
	svc := NewCallService(repo)
	ctx := context.Background()

	rec := &models.CallRecord{SourceRef: "s", Status: models.StatusPending}
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := svc.List(ctx)
	if err != nil || len(rows) != 1 {
		t.Fatalf("list: %v (%d rows)", err, len(rows))
	}
	got, err := svc.Get(ctx, rec.ID)
	if err != nil || got.SourceRef != "s" {
		t.Fatalf("get: %+v %v", got, err)
	}
}
