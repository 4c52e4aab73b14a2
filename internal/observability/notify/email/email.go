// Package email delivers workflow notifications over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/target/gha-notifier/internal/observability/notify"
)

// Config captures SMTP settings.
type Config struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
	TLS      bool
	Timeout  time.Duration
}

// Sender is the subset of *mail.Client used by Sink.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Sink sends notifications as plain-text email.
type Sink struct {
	from   string
	sender Sender
}

var _ notify.Sink = (*Sink)(nil)

// NewSink builds an SMTP-backed sink.
func NewSink(cfg Config) (*Sink, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errors.New("email: smtp host is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(timeout),
	}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("email: create smtp client: %w", err)
	}
	return NewSinkWithSender(cfg.From, client)
}

// NewSinkWithSender builds a sink around an existing sender.
func NewSinkWithSender(from string, sender Sender) (*Sink, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, errors.New("email: sender address is required")
	}
	if sender == nil {
		return nil, errors.New("email: sender is required")
	}
	return &Sink{from: from, sender: sender}, nil
}

// Send delivers msg to its recipients. Messages without recipients are an error.
func (s *Sink) Send(ctx context.Context, msg notify.Message) error {
	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}
	if err := s.sender.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: send %s notification: %w", msg.Kind, err)
	}
	return nil
}

func (s *Sink) buildMessage(msg notify.Message) (*mail.Msg, error) {
	if len(msg.Recipients) == 0 {
		return nil, errors.New("email: message has no recipients")
	}

	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("email: invalid sender %q: %w", s.from, err)
	}
	if err := m.To(msg.Recipients...); err != nil {
		return nil, fmt.Errorf("email: invalid recipients %v: %w", msg.Recipients, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
