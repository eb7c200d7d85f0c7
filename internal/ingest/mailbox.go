package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Attachment is one file carried by a mailbox message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one unread mailbox message, already reduced to its attachments.
type Message struct {
	ID          string
	Attachments []Attachment
}

// Source is a mailbox protocol adapter. Fetch returns currently-unread
// messages; MarkRead ensures a message is not returned by later fetches.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Message, error)
	MarkRead(ctx context.Context, msgID string) error
}

// IsAudioName reports whether a filename looks like a recording we ingest.
func IsAudioName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".wav") || strings.HasSuffix(lower, ".mp3")
}

// Poller drives one mailbox source: each cycle it fetches unread messages,
// ingests every qualifying attachment, and marks each message read exactly
// once regardless of per-attachment failures, so a message is never
// reprocessed. The loop never exits on its own; cycle errors back off and
// continue.
type Poller struct {
	Source   Source
	Ingestor *Ingestor
	Interval time.Duration
	Backoff  time.Duration
	Logger   *logrus.Logger
}

func (p *Poller) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = interval
	}

	log := p.logger().WithField("source", p.Source.Name())
	log.WithField("interval", interval.String()).Info("mailbox poller started")

	for {
		delay := interval
		if err := p.cycle(ctx); err != nil {
			log.WithError(err).Warn("poll cycle failed, backing off")
			delay = backoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (p *Poller) cycle(ctx context.Context) error {
	msgs, err := p.Source.Fetch(ctx)
	if err != nil {
		return err
	}

	log := p.logger().WithField("source", p.Source.Name())
	if len(msgs) > 0 {
		log.WithField("messages", len(msgs)).Info("unread messages found")
	}

	for _, msg := range msgs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.handleMessage(ctx, log, msg)
	}
	return nil
}

func (p *Poller) handleMessage(ctx context.Context, log *logrus.Entry, msg Message) {
	ref := p.sourceRef(msg)

	for _, att := range msg.Attachments {
		if !IsAudioName(att.Filename) {
			continue
		}
		if len(att.Data) == 0 {
			log.WithField("filename", att.Filename).Warn("skipping empty attachment")
			continue
		}

		// One failing attachment never aborts its siblings.
		_, err := p.Ingestor.Ingest(ctx, Input{
			SourceRef:     ref,
			CandidateName: att.Filename,
			ContentType:   att.ContentType,
			Data:          att.Data,
			Metadata: map[string]any{
				"mailbox":  p.Source.Name(),
				"message":  msg.ID,
				"filename": att.Filename,
			},
		})
		if err != nil {
			log.WithError(err).WithField("filename", att.Filename).Error("attachment ingestion failed")
		}
	}

	if err := p.Source.MarkRead(ctx, msg.ID); err != nil {
		log.WithError(err).WithField("message", msg.ID).Warn("failed to mark message read")
	}
}

func (p *Poller) sourceRef(msg Message) string {
	if msg.ID == "" {
		return fmt.Sprintf("%s-%d", p.Source.Name(), time.Now().Unix())
	}
	return fmt.Sprintf("%s-%s", p.Source.Name(), msg.ID)
}

func (p *Poller) logger() *logrus.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return logrus.StandardLogger()
}
