// Package email sends queued notifications over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/google/uuid"

	"github.com/statustrack/statustrack/internal/notifications"
)

const defaultBatchSize = 50

// Config contains SMTP sender settings.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	BatchSize int
}

// Sender delivers messages over SMTP. Recipients go on the envelope only
// (BCC), in batches, so subscribers never see each other's addresses.
type Sender struct {
	cfg Config
}

// NewSender creates a new SMTP sender.
func NewSender(cfg Config) *Sender {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Sender{cfg: cfg}
}

// Send delivers one message to every recipient. A failed batch aborts the
// remaining batches; the queue retries the whole notification.
func (s *Sender) Send(ctx context.Context, to []string, subject, body string) error {
	msg := s.message(subject, body)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	for start := 0; start < len(to); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + s.cfg.BatchSize
		if end > len(to) {
			end = len(to)
		}
		if err := smtp.SendMail(addr, auth, s.cfg.From, to[start:end], msg); err != nil {
			return classify(err)
		}
	}
	return nil
}

func (s *Sender) message(subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: undisclosed-recipients:;\r\n")
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), s.cfg.Host)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// classify maps SMTP failures onto the queue's retry semantics: transient
// 4xx replies and connection problems retry, permanent 5xx replies fail.
func classify(err error) error {
	var proto *textproto.Error
	if errors.As(err, &proto) {
		if proto.Code >= 400 && proto.Code < 500 {
			return &notifications.RetryableError{Err: err}
		}
		return err
	}
	return &notifications.RetryableError{Err: err}
}
