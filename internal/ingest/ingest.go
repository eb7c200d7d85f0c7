// Package ingest normalizes inbound recordings (webhook pushes, mailbox
// attachments) into stored audio plus a pending call record, and fires the
// best-effort processing trigger.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"callscribe/internal/dispatch"
	"callscribe/internal/models"
	"callscribe/internal/repositories"
	"callscribe/internal/storage"
	"callscribe/internal/utils"
)

// Input is one normalized unit of ingestion work, source framing stripped.
type Input struct {
	SourceRef     string // fabricated from a timestamp when the source has none
	CandidateName string // desired blob name, pre-collision-check
	ContentType   string
	Data          []byte
	FromParty     string
	ToParty       string
	Metadata      map[string]any
}

// Ingestor runs the source-independent part of ingestion: disambiguate the
// blob name, persist the audio, insert the pending record, submit it for
// processing without waiting on the result.
type Ingestor struct {
	Repo       repositories.CallRepo
	Store      storage.Store
	Dispatcher dispatch.Dispatcher // optional; the sweep covers its absence
	Logger     *logrus.Logger
}

func (ing *Ingestor) Ingest(ctx context.Context, in Input) (*models.CallRecord, error) {
	const op = "Ingestor.Ingest"

	if len(in.Data) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no audio payload", nil)
	}

	sourceRef := in.SourceRef
	if sourceRef == "" {
		sourceRef = fmt.Sprintf("local-%d", time.Now().Unix())
	}

	name, err := ing.uniqueName(ctx, sanitizeName(in.CandidateName))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to pick a storage name", err)
	}

	location, err := ing.Store.Put(ctx, name, in.ContentType, in.Data)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store audio", err)
	}

	rec := &models.CallRecord{
		SourceRef:     sourceRef,
		FromParty:     in.FromParty,
		ToParty:       in.ToParty,
		AudioLocation: location,
		Status:        models.StatusPending,
	}
	if in.Metadata != nil {
		if b, err := json.Marshal(in.Metadata); err == nil {
			rec.Metadata = datatypes.JSON(b)
		}
	}

	if err := ing.Repo.Insert(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert call record", err)
	}

	log := ing.logger().WithFields(logrus.Fields{
		"record_id":  rec.ID,
		"source_ref": rec.SourceRef,
		"audio":      rec.AudioLocation,
	})

	if ing.Dispatcher != nil {
		if err := ing.Dispatcher.Submit(ctx, rec.ID); err != nil {
			log.WithError(err).Warn("immediate dispatch failed, record stays pending for the sweep")
		}
	}

	log.Info("recording ingested")
	return rec, nil
}

// uniqueName appends a numeric suffix before the extension until the name is
// free in the blob store, so a repeated filename never overwrites a stored
// recording.
func (ing *Ingestor) uniqueName(ctx context.Context, candidate string) (string, error) {
	ext := path.Ext(candidate)
	stem := strings.TrimSuffix(candidate, ext)

	name := candidate
	for i := 1; ; i++ {
		exists, err := ing.Store.Exists(ctx, name)
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
		name = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
}

func (ing *Ingestor) logger() *logrus.Logger {
	if ing.Logger != nil {
		return ing.Logger
	}
	return logrus.StandardLogger()
}

func sanitizeName(candidate string) string {
	base := filepath.Base(strings.TrimSpace(candidate))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "recording.wav"
	}
	return base
}
