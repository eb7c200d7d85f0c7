package ingest

import (
	"context"
	"testing"

	"callscribe/internal/repositories/memory"
)

type fakeSource struct {
	msgs    []Message
	marked  []string
	fetches int
}

func (f *fakeSource) Name() string { return "testbox" }

func (f *fakeSource) Fetch(ctx context.Context) ([]Message, error) {
	f.fetches++
	msgs := f.msgs
	f.msgs = nil
	return msgs, nil
}

func (f *fakeSource) MarkRead(ctx context.Context, msgID string) error {
	f.marked = append(f.marked, msgID)
	return nil
}

func newPoller(src Source, ing *Ingestor) *Poller {
	return &Poller{Source: src, Ingestor: ing}
}

func TestCycle_SameFilenameAcrossMessages(t *testing.T) {
	repo := memory.NewCallRepo()
	store := newFakeStore()
	src := &fakeSource{msgs: []Message{
		{ID: "m1", Attachments: []Attachment{{Filename: "voicemail.wav", Data: []byte("X")}}},
		{ID: "m2", Attachments: []Attachment{{Filename: "voicemail.wav", Data: []byte("X")}}},
	}}
	p := newPoller(src, &Ingestor{Repo: repo, Store: store})

	if err := p.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	for _, want := range []string{"voicemail.wav", "voicemail-1.wav"} {
		if _, ok := store.blobs[want]; !ok {
			t.Fatalf("expected blob %q, have %v", want, blobNames(store))
		}
	}
	rows, _ := repo.List(context.Background())
	if len(rows) != 2 {
		t.Fatalf("expected 2 records, got %d", len(rows))
	}
}

func TestCycle_MarksReadOncePerMessage(t *testing.T) {
	repo := memory.NewCallRepo()
	src := &fakeSource{msgs: []Message{
		{ID: "m1", Attachments: []Attachment{
			{Filename: "a.wav", Data: []byte("x")},
			{Filename: "b.mp3", Data: []byte("y")},
			{Filename: "notes.txt", Data: []byte("z")},
		}},
	}}
	p := newPoller(src, &Ingestor{Repo: repo, Store: newFakeStore()})

	if err := p.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(src.marked) != 1 || src.marked[0] != "m1" {
		t.Fatalf("message must be marked read exactly once, got %v", src.marked)
	}
	rows, _ := repo.List(context.Background())
	if len(rows) != 2 {
		t.Fatalf("only audio attachments ingest, got %d records", len(rows))
	}
}

func TestCycle_FailingAttachmentDoesNotBlockSiblingsOrMarkRead(t *testing.T) {
	repo := memory.NewCallRepo()
	src := &fakeSource{msgs: []Message{
		{ID: "m1", Attachments: []Attachment{
			{Filename: "broken.wav", Data: nil}, // empty payload fails ingestion
			{Filename: "fine.wav", Data: []byte("x")},
		}},
	}}
	p := newPoller(src, &Ingestor{Repo: repo, Store: newFakeStore()})

	if err := p.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	rows, _ := repo.List(context.Background())
	if len(rows) != 1 {
		t.Fatalf("sibling attachment must still ingest, got %d records", len(rows))
	}
	// Read is marked regardless of attachment failure: a permanently bad
	// attachment is deliberately never retried.
	if len(src.marked) != 1 {
		t.Fatalf("message must be marked read despite the failure, got %v", src.marked)
	}
}

func TestCycle_SourceRefCarriesSourceAndMessage(t *testing.T) {
	repo := memory.NewCallRepo()
	src := &fakeSource{msgs: []Message{
		{ID: "abc123", Attachments: []Attachment{{Filename: "a.wav", Data: []byte("x")}}},
	}}
	p := newPoller(src, &Ingestor{Repo: repo, Store: newFakeStore()})

	if err := p.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	rows, _ := repo.List(context.Background())
	if len(rows) != 1 || rows[0].SourceRef != "testbox-abc123" {
		t.Fatalf("unexpected source ref: %+v", rows)
	}
}

func TestIsAudioName(t *testing.T) {
	for name, want := range map[string]bool{
		"Voicemail.WAV": true,
		"clip.mp3":      true,
		"notes.txt":     false,
		"wav":           false,
	} {
		if got := IsAudioName(name); got != want {
			t.Fatalf("IsAudioName(%q) = %v, want %v", name, got, want)
		}
	}
}
