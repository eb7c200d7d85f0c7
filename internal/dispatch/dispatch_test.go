package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"callscribe/internal/models"
	"callscribe/internal/repositories/memory"
)

// completingProcessor drives records straight to done, flaky ids to error.
type completingProcessor struct {
	repo interface {
		GetByID(ctx context.Context, id int64) (*models.CallRecord, error)
		CompletePending(ctx context.Context, id int64, transcript, summary string, status models.Status) (bool, error)
	}
	failIDs map[int64]bool

	mu    sync.Mutex
	calls []int64
}

func (p *completingProcessor) Process(ctx context.Context, id int64) error {
	p.mu.Lock()
	p.calls = append(p.calls, id)
	p.mu.Unlock()

	status := models.StatusDone
	if p.failIDs[id] {
		status = models.StatusError
	}
	_, err := p.repo.CompletePending(ctx, id, "t", "s", status)
	return err
}

func (p *completingProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func TestSweepConvergence(t *testing.T) {
	repo := memory.NewCallRepo()
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		rec := &models.CallRecord{SourceRef: "r", Status: models.StatusPending}
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	proc := &completingProcessor{repo: repo, failIDs: map[int64]bool{ids[2]: true}}
	sweeper := NewSweeper(repo, proc, time.Hour, nil)

	// Repeated sweeps must terminate with nothing left pending.
	for i := 0; i < 3; i++ {
		sweeper.Sweep(ctx)
		pending, err := repo.ListPendingIDs(ctx)
		if err != nil {
			t.Fatalf("list pending: %v", err)
		}
		if len(pending) == 0 {
			break
		}
	}

	pending, _ := repo.ListPendingIDs(ctx)
	if len(pending) != 0 {
		t.Fatalf("sweep did not converge, still pending: %v", pending)
	}
	for _, id := range ids {
		rec, _ := repo.GetByID(ctx, id)
		if !rec.Status.Terminal() {
			t.Fatalf("record %d not terminal: %q", id, rec.Status)
		}
	}
	got, _ := repo.GetByID(ctx, ids[2])
	if got.Status != models.StatusError {
		t.Fatalf("failing record must end in error, got %q", got.Status)
	}
}

func TestSweepSkipsTerminalRecords(t *testing.T) {
	repo := memory.NewCallRepo()
	ctx := context.Background()

	rec := &models.CallRecord{SourceRef: "r", Status: models.StatusPending}
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	proc := &completingProcessor{repo: repo}
	sweeper := NewSweeper(repo, proc, time.Hour, nil)

	sweeper.Sweep(ctx)
	sweeper.Sweep(ctx)
	if proc.callCount() != 1 {
		t.Fatalf("terminal record was resubmitted, %d calls", proc.callCount())
	}
}

func TestLocalPool_ProcessesSubmissions(t *testing.T) {
	repo := memory.NewCallRepo()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &models.CallRecord{SourceRef: "r", Status: models.StatusPending}
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	proc := &completingProcessor{repo: repo}
	pool := NewLocalPool(proc, 2, 8, nil)
	pool.Start(ctx)

	if err := pool.Submit(ctx, rec.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		got, _ := repo.GetByID(ctx, rec.ID)
		if got.Status.Terminal() {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("record never processed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestLocalPool_FullQueueDropsSubmission(t *testing.T) {
	proc := &completingProcessor{repo: memory.NewCallRepo()}
	pool := NewLocalPool(proc, 1, 1, nil)
	// workers not started, so the single slot fills and stays full

	if err := pool.Submit(context.Background(), 1); err != nil {
		t.Fatalf("first submit should fit: %v", err)
	}
	if err := pool.Submit(context.Background(), 2); err == nil {
		t.Fatalf("expected full-queue submit to fail fast")
	}
}
