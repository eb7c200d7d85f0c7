package models

import (
	"strings"
	"testing"
)

func TestParseCallSummary(t *testing.T) {
	raw := `{"short_summary":"Customer asked about billing.","action_items":[{"text":"Send invoice copy","owner":"sam"}],"topics":["billing"],"sentiment":"negative"}`
	s, err := ParseCallSummary(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.ShortSummary != "Customer asked about billing." {
		t.Fatalf("unexpected short summary: %q", s.ShortSummary)
	}
	if len(s.ActionItems) != 1 || s.ActionItems[0].Owner != "sam" {
		t.Fatalf("unexpected action items: %+v", s.ActionItems)
	}
	if s.Sentiment != SentimentNegative {
		t.Fatalf("unexpected sentiment: %q", s.Sentiment)
	}
}

func TestParseCallSummary_ExtractsWrappedObject(t *testing.T) {
	raw := "Here is the summary you asked for:\n```json\n{\"short_summary\":\"Quick sync.\",\"sentiment\":\"positive\"}\n```"
	s, err := ParseCallSummary(raw)
	if err != nil {
		t.Fatalf("expected extraction to succeed, got %v", err)
	}
	if s.ShortSummary != "Quick sync." || s.Sentiment != SentimentPositive {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.ActionItems == nil || s.Topics == nil {
		t.Fatalf("expected empty slices, got nil")
	}
}

func TestParseCallSummary_DefaultsMissingSentiment(t *testing.T) {
	s, err := ParseCallSummary(`{"short_summary":"ok"}`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.Sentiment != SentimentNeutral {
		t.Fatalf("expected neutral sentiment, got %q", s.Sentiment)
	}
}

func TestParseCallSummary_RejectsMalformed(t *testing.T) {
	cases := []string{
		"not json at all",
		`{"action_items":[],"topics":[]}`,
		`{"short_summary":"ok","sentiment":"ambivalent"}`,
	}
	for _, raw := range cases {
		if _, err := ParseCallSummary(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestFallbackSummary_Truncates(t *testing.T) {
	long := strings.Repeat("a", 600)
	s := FallbackSummary(long)
	if len([]rune(s.ShortSummary)) != 503 {
		t.Fatalf("expected 500 chars plus ellipsis, got %d", len([]rune(s.ShortSummary)))
	}
	if !strings.HasSuffix(s.ShortSummary, "...") {
		t.Fatalf("expected ellipsis marker")
	}
	if s.Sentiment != SentimentNeutral || len(s.ActionItems) != 0 || len(s.Topics) != 0 {
		t.Fatalf("unexpected fallback contents: %+v", s)
	}
}

func TestFallbackSummary_ShortTranscriptKeptWhole(t *testing.T) {
	s := FallbackSummary("hello there")
	if s.ShortSummary != "hello there" {
		t.Fatalf("expected transcript untouched, got %q", s.ShortSummary)
	}
}

func TestStatus(t *testing.T) {
	if !StatusDone.Terminal() || !StatusError.Terminal() {
		t.Fatalf("done/error must be terminal")
	}
	if StatusPending.Terminal() {
		t.Fatalf("pending must not be terminal")
	}
	if got, ok := ParseStatus(" Pending "); !ok || got != StatusPending {
		t.Fatalf("unexpected parse result: %q %v", got, ok)
	}
	if _, ok := ParseStatus("paused"); ok {
		t.Fatalf("unknown status must not parse")
	}
}
