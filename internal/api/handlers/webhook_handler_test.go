package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"callscribe/internal/api/handlers"
	"callscribe/internal/ingest"
	"callscribe/internal/models"
	"callscribe/internal/repositories/memory"
)

type fakeStore struct {
	blobs map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{blobs: map[string][]byte{}} }

func (f *fakeStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	f.blobs[name] = data
	return name, nil
}

func (f *fakeStore) Get(ctx context.Context, location string) ([]byte, error) {
	b, ok := f.blobs[location]
	if !ok {
		return nil, errors.New("no such blob")
	}
	return b, nil
}

func (f *fakeStore) Exists(ctx context.Context, name string) (bool, error) {
	_, ok := f.blobs[name]
	return ok, nil
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecordingCallback_MissingURL(t *testing.T) {
	repo := memory.NewCallRepo()
	r := newTestRouter(repo, nil)

	w := postForm(r, "/twilio/recording-callback", url.Values{"CallSid": {"CA1"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	rows, _ := repo.List(context.Background())
	if len(rows) != 0 {
		t.Fatalf("no record may be created on a rejected webhook")
	}
}

func TestRecordingCallback_FetchFailure(t *testing.T) {
	audio := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer audio.Close()

	repo := memory.NewCallRepo()
	r := newTestRouter(repo, nil)

	w := postForm(r, "/twilio/recording-callback", url.Values{
		"RecordingUrl": {audio.URL + "/rec.wav"},
		"CallSid":      {"CA1"},
	})
	if w.Code < 500 {
		t.Fatalf("expected server error, got %d", w.Code)
	}
	rows, _ := repo.List(context.Background())
	if len(rows) != 0 {
		t.Fatalf("no record may be created when the fetch fails")
	}
}

func TestRecordingCallback_Success(t *testing.T) {
	audio := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("RIFFaudio"))
	}))
	defer audio.Close()

	repo := memory.NewCallRepo()
	store := newFakeStore()
	webhook := handlers.NewWebhookHandler(&ingest.Ingestor{Repo: repo, Store: store}, time.Second, "")
	r := newTestRouter(repo, webhook)

	w := postForm(r, "/twilio/recording-callback", url.Values{
		"RecordingUrl": {audio.URL + "/rec.wav"},
		"CallSid":      {"CA42"},
		"From":         {"+15551234567"},
		"To":           {"+15557654321"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "OK" {
		t.Fatalf("expected fixed acknowledgement, got %q", w.Body.String())
	}

	rows, _ := repo.List(context.Background())
	if len(rows) != 1 {
		t.Fatalf("expected one record, got %d", len(rows))
	}
	rec := rows[0]
	if rec.Status != models.StatusPending || rec.SourceRef != "CA42" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.FromParty != "+15551234567" || rec.ToParty != "+15557654321" {
		t.Fatalf("party fields not captured: %+v", rec)
	}
	if _, ok := store.blobs["twilio-CA42.wav"]; !ok {
		t.Fatalf("expected blob twilio-CA42.wav, have %v", store.blobs)
	}
}

func TestVoice_RendersRecordTwiML(t *testing.T) {
	r := newTestRouter(memory.NewCallRepo(), nil)

	req := httptest.NewRequest(http.MethodPost, "/twilio/voice", nil)
	req.Host = "calls.example.com"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Record") ||
		!strings.Contains(body, "https://calls.example.com/twilio/recording-callback") {
		t.Fatalf("unexpected TwiML: %s", body)
	}
}
