package models

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// fallbackSummaryLimit caps the transcript excerpt used when no structured
// summary is available.
const fallbackSummaryLimit = 500

// ActionItem is a single follow-up extracted from a call.
type ActionItem struct {
	Text  string `json:"text"`
	Owner string `json:"owner,omitempty"`
	Due   string `json:"due,omitempty"`
}

// CallSummary is the structured summary stored alongside a transcript.
type CallSummary struct {
	ShortSummary string       `json:"short_summary"`
	ActionItems  []ActionItem `json:"action_items"`
	Topics       []string     `json:"topics"`
	Sentiment    string       `json:"sentiment"`
}

// Encode serializes the summary into the single text form persisted on the
// call record.
func (s CallSummary) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var errSummaryShape = errors.New("summary does not match expected shape")

// ParseCallSummary decodes an engine response into a CallSummary. Engines
// occasionally wrap the JSON object in prose; a single object extraction
// pass is attempted before giving up.
func ParseCallSummary(raw string) (CallSummary, error) {
	var s CallSummary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		extracted, ok := extractJSONObject(raw)
		if !ok {
			return CallSummary{}, err
		}
		if err := json.Unmarshal([]byte(extracted), &s); err != nil {
			return CallSummary{}, err
		}
	}
	if strings.TrimSpace(s.ShortSummary) == "" {
		return CallSummary{}, errSummaryShape
	}
	switch s.Sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
	case "":
		s.Sentiment = SentimentNeutral
	default:
		return CallSummary{}, errSummaryShape
	}
	if s.ActionItems == nil {
		s.ActionItems = []ActionItem{}
	}
	if s.Topics == nil {
		s.Topics = []string{}
	}
	return s, nil
}

func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// FallbackSummary builds the deterministic local summary used when the
// summarization engine is unavailable or returns an unusable response:
// the transcript's leading characters, no action items or topics, neutral
// sentiment.
func FallbackSummary(transcript string) CallSummary {
	short := transcript
	if runes := []rune(transcript); len(runes) > fallbackSummaryLimit {
		short = string(runes[:fallbackSummaryLimit]) + "..."
	}
	return CallSummary{
		ShortSummary: short,
		ActionItems:  []ActionItem{},
		Topics:       []string{},
		Sentiment:    SentimentNeutral,
	}
}
