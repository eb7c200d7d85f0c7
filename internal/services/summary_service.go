package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"callscribe/internal/models"
	"callscribe/internal/providers/llm"
)

const summaryPrompt = `You are a concise call summarizer. Given a transcript, produce a JSON object ` +
	`with the following keys: "short_summary" (1-3 sentences), "action_items" ` +
	`(an array of objects with "text", "owner" (if present or null), and "due" (if present or null)), ` +
	`"topics" (array of short topic strings), and "sentiment" ("positive", "neutral" or "negative"). ` +
	`Return ONLY valid JSON with those keys. Do not include any additional text.` +
	"\n\nTranscript:\n\n"

// SummaryService turns a transcript into a structured summary. It never
// fails: any engine error, timeout, or unparseable response degrades to the
// deterministic local summary, so summarization can never block a record
// from completing.
type SummaryService interface {
	Summarize(ctx context.Context, transcript string) models.CallSummary
}

type summaryService struct {
	llm     llm.Provider // nil when no engine is configured
	timeout time.Duration
	logger  *logrus.Logger
}

func NewSummaryService(provider llm.Provider, timeout time.Duration, logger *logrus.Logger) SummaryService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &summaryService{llm: provider, timeout: timeout, logger: logger}
}

func (s *summaryService) Summarize(ctx context.Context, transcript string) models.CallSummary {
	if s.llm == nil {
		return models.FallbackSummary(transcript)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.llm.Complete(ctx, summaryPrompt+transcript)
	if err != nil {
		s.logger.WithError(err).Warn("summarization engine failed, using local summary")
		return models.FallbackSummary(transcript)
	}

	sum, err := models.ParseCallSummary(out)
	if err != nil {
		s.logger.WithError(err).Warn("summarization response unparseable, using local summary")
		return models.FallbackSummary(transcript)
	}
	return sum
}
