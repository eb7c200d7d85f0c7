package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"callscribe/internal/models"
	"callscribe/internal/providers/stt"
	"callscribe/internal/repositories"
	"callscribe/internal/storage"
	"callscribe/internal/utils"
)

// transcriptPlaceholderFormat is the deterministic transcript used when no
// transcription engine is configured, keeping the rest of the pipeline
// exercised in degraded mode.
const transcriptPlaceholderFormat = "TRANSCRIPT_PLACEHOLDER: processed %s"

// ProcessingService drives a pending record to a terminal state. Process is
// safe to invoke redundantly and concurrently for the same id: the store's
// pending-only guard discards every terminal write after the first.
type ProcessingService interface {
	Process(ctx context.Context, id int64) error
}

type processingService struct {
	repo      repositories.CallRepo
	store     storage.Store
	stt       stt.Provider // nil when no engine is configured
	summaries SummaryService

	sttTimeout time.Duration
	language   string
	logger     *logrus.Logger
}

func NewProcessingService(
	repo repositories.CallRepo,
	store storage.Store,
	sttProvider stt.Provider,
	summaries SummaryService,
	sttTimeout time.Duration,
	language string,
	logger *logrus.Logger,
) ProcessingService {
	if sttTimeout <= 0 {
		sttTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &processingService{
		repo:       repo,
		store:      store,
		stt:        sttProvider,
		summaries:  summaries,
		sttTimeout: sttTimeout,
		language:   language,
		logger:     logger,
	}
}

func (s *processingService) Process(ctx context.Context, id int64) error {
	rec, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		s.logger.WithField("record_id", id).Debug("process skipped, record not found")
		return nil
	}
	if err != nil {
		return err
	}
	if rec.Status != models.StatusPending {
		return nil
	}

	log := s.logger.WithFields(logrus.Fields{
		"record_id": rec.ID,
		"audio":     rec.AudioLocation,
	})

	audio, err := s.store.Get(ctx, rec.AudioLocation)
	if err != nil {
		log.WithError(err).Error("audio unreadable")
		return s.fail(ctx, log, rec.ID)
	}

	var transcript string
	if s.stt == nil {
		transcript = fmt.Sprintf(transcriptPlaceholderFormat, rec.AudioLocation)
	} else {
		sttCtx, cancel := context.WithTimeout(ctx, s.sttTimeout)
		text, confidence, err := s.stt.Transcribe(sttCtx, audio, s.language)
		cancel()
		if err != nil {
			log.WithError(err).Error("transcription failed")
			return s.fail(ctx, log, rec.ID)
		}
		log.WithField("confidence", confidence).Debug("transcription complete")
		transcript = text
	}

	summary := s.summaries.Summarize(ctx, transcript)
	encoded, err := summary.Encode()
	if err != nil {
		log.WithError(err).Warn("summary serialization failed, storing transcript only")
		encoded = ""
	}

	applied, err := s.repo.CompletePending(ctx, rec.ID, transcript, encoded, models.StatusDone)
	if err != nil {
		return err
	}
	if !applied {
		log.Debug("record already terminal, result discarded")
		return nil
	}
	log.Info("record processed")
	return nil
}

// fail transitions the record to error, leaving transcript and summary
// unset. Engine failures never propagate as crashes; they become a status.
func (s *processingService) fail(ctx context.Context, log *logrus.Entry, id int64) error {
	applied, err := s.repo.CompletePending(ctx, id, "", "", models.StatusError)
	if err != nil {
		return err
	}
	if applied {
		log.Warn("record marked as error")
	}
	return nil
}
