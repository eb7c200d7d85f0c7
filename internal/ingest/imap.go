package ingest

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"
)

// IMAPSource polls a generic IMAP mailbox over TLS. The connection is kept
// across calls within a cycle and re-dialed after any protocol error; a
// dropped connection surfaces as a cycle error and the poller backs off.
type IMAPSource struct {
	Addr     string // host:port
	Username string
	Password string
	Folder   string
	Logger   *logrus.Logger

	c *imapclient.Client
}

func (s *IMAPSource) Name() string { return "imap" }

func (s *IMAPSource) ensure() error {
	if s.c != nil {
		return nil
	}
	c, err := imapclient.DialTLS(s.Addr, nil)
	if err != nil {
		return fmt.Errorf("dial imap: %w", err)
	}
	if err := c.Login(s.Username, s.Password); err != nil {
		_ = c.Logout()
		return fmt.Errorf("imap login: %w", err)
	}
	folder := s.Folder
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := c.Select(folder, false); err != nil {
		_ = c.Logout()
		return fmt.Errorf("select %s: %w", folder, err)
	}
	s.c = c
	return nil
}

func (s *IMAPSource) reset() {
	if s.c != nil {
		_ = s.c.Logout()
		s.c = nil
	}
}

func (s *IMAPSource) Fetch(ctx context.Context) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensure(); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := s.c.UidSearch(criteria)
	if err != nil {
		s.reset()
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	// Peek so fetching alone does not flip \Seen; the poller marks read
	// explicitly after the whole message is handled.
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	ch := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.c.UidFetch(seqset, items, ch)
	}()

	var out []Message
	for raw := range ch {
		body := raw.GetBody(section)
		if body == nil {
			continue
		}
		out = append(out, Message{
			ID:          strconv.FormatUint(uint64(raw.Uid), 10),
			Attachments: s.parseAttachments(body),
		})
	}
	if err := <-done; err != nil {
		s.reset()
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	return out, nil
}

func (s *IMAPSource) parseAttachments(body io.Reader) []Attachment {
	mr, err := mail.CreateReader(body)
	if err != nil {
		s.logger().WithError(err).Warn("unparseable mail body")
		return nil
	}

	var atts []Attachment
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger().WithError(err).Warn("truncated mail part")
			break
		}

		h, ok := p.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, _ := h.Filename()
		if filename == "" {
			continue
		}
		data, err := io.ReadAll(p.Body)
		if err != nil {
			s.logger().WithError(err).WithField("filename", filename).Warn("failed to read attachment")
			continue
		}
		contentType, _, _ := h.ContentType()
		atts = append(atts, Attachment{
			Filename:    filename,
			ContentType: contentType,
			Data:        data,
		})
	}
	return atts
}

func (s *IMAPSource) MarkRead(ctx context.Context, msgID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensure(); err != nil {
		return err
	}

	uid, err := strconv.ParseUint(msgID, 10, 32)
	if err != nil {
		return fmt.Errorf("bad imap uid %q: %w", msgID, err)
	}
	seqset := new(imap.SeqSet)
	seqset.AddNum(uint32(uid))

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := s.c.UidStore(seqset, item, []any{imap.SeenFlag}, nil); err != nil {
		s.reset()
		return fmt.Errorf("imap store: %w", err)
	}
	return nil
}

// Close logs out the cached connection.
func (s *IMAPSource) Close() {
	s.reset()
}

func (s *IMAPSource) logger() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}
