package ingest

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// gmailQuery narrows polling to unread messages carrying audio attachments.
const gmailQuery = "has:attachment (filename:mp3 OR filename:wav) label:unread"

const gmailMaxResults = 50

// GmailSource polls a Gmail account through the Gmail API using OAuth
// refresh-token credentials.
type GmailSource struct {
	svc    *gmail.Service
	user   string
	logger *logrus.Logger
}

func NewGmailSource(ctx context.Context, clientID, clientSecret, refreshToken, user string, logger *logrus.Logger) (*GmailSource, error) {
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("gmail client id, secret, and refresh token are required")
	}
	if user == "" {
		user = "me"
	}
	if logger == nil {
		logger = logrus.New()
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailModifyScope},
	}
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailSource{svc: svc, user: user, logger: logger}, nil
}

func (s *GmailSource) Name() string { return "gmail" }

func (s *GmailSource) Fetch(ctx context.Context) ([]Message, error) {
	resp, err := s.svc.Users.Messages.List(s.user).
		Q(gmailQuery).
		MaxResults(gmailMaxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list gmail messages: %w", err)
	}

	var out []Message
	for _, stub := range resp.Messages {
		msg, err := s.fetchMessage(ctx, stub.Id)
		if err != nil {
			// Message stays unread and is retried next cycle.
			s.logger.WithError(err).WithField("message", stub.Id).Warn("failed to fetch gmail message")
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *GmailSource) fetchMessage(ctx context.Context, id string) (Message, error) {
	full, err := s.svc.Users.Messages.Get(s.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return Message{}, err
	}

	var parts []*gmail.MessagePart
	collectParts(full.Payload, &parts)

	msg := Message{ID: id}
	for _, p := range parts {
		if p.Filename == "" || !IsAudioName(p.Filename) || p.Body == nil {
			continue
		}
		data, err := s.partData(ctx, id, p)
		if err != nil {
			return Message{}, err
		}
		if len(data) == 0 {
			continue
		}
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename:    p.Filename,
			ContentType: p.MimeType,
			Data:        data,
		})
	}
	return msg, nil
}

// partData handles both inline bodies and separately stored attachments.
func (s *GmailSource) partData(ctx context.Context, msgID string, p *gmail.MessagePart) ([]byte, error) {
	if p.Body.Data != "" {
		return decodeWebSafeBase64(p.Body.Data)
	}
	if p.Body.AttachmentId == "" {
		return nil, nil
	}
	att, err := s.svc.Users.Messages.Attachments.Get(s.user, msgID, p.Body.AttachmentId).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return decodeWebSafeBase64(att.Data)
}

func (s *GmailSource) MarkRead(ctx context.Context, msgID string) error {
	_, err := s.svc.Users.Messages.Modify(s.user, msgID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	return err
}

func collectParts(p *gmail.MessagePart, out *[]*gmail.MessagePart) {
	if p == nil {
		return
	}
	if len(p.Parts) == 0 {
		*out = append(*out, p)
		return
	}
	for _, sub := range p.Parts {
		collectParts(sub, out)
	}
}

// The Gmail API emits web-safe base64, with or without padding.
func decodeWebSafeBase64(data string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}
