package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchAudio_AppendsWavForBareURLs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("RIFFaudio"))
	}))
	defer srv.Close()

	data, ext, err := FetchAudio(context.Background(), srv.Client(), srv.URL+"/recordings/RE123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/recordings/RE123.wav" {
		t.Fatalf("expected .wav appended, requested %q", gotPath)
	}
	if ext != ".wav" || string(data) != "RIFFaudio" {
		t.Fatalf("unexpected result: ext=%q data=%q", ext, data)
	}
}

func TestFetchAudio_KeepsExplicitExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ".mp3") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte("ID3"))
	}))
	defer srv.Close()

	_, ext, err := FetchAudio(context.Background(), srv.Client(), srv.URL+"/rec.mp3")
	if err != nil || ext != ".mp3" {
		t.Fatalf("unexpected: ext=%q err=%v", ext, err)
	}
}

func TestFetchAudio_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, _, err := FetchAudio(context.Background(), srv.Client(), srv.URL+"/gone.wav"); err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestFetchAudio_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	if _, _, err := FetchAudio(context.Background(), srv.Client(), srv.URL+"/empty.wav"); err == nil {
		t.Fatalf("expected error for empty body")
	}
}
