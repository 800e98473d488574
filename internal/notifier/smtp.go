package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"

	"github.com/wneessen/go-mail"

	"github.com/obsidianstack/hostwatch/internal/config"
)

// SMTP delivers messages over an authenticated STARTTLS session.
type SMTP struct {
	cfg  func() *config.Config
	send func(ctx context.Context, c *mail.Client, m *mail.Msg) error // injectable for tests
}

// NewSMTP returns an SMTP transport reading server settings from cfg on
// every send.
func NewSMTP(cfg func() *config.Config) *SMTP {
	return &SMTP{
		cfg: cfg,
		send: func(ctx context.Context, c *mail.Client, m *mail.Msg) error {
			return c.DialAndSendWithContext(ctx, m)
		},
	}
}

// Send performs one SMTP session: connect, STARTTLS, AUTH PLAIN, send.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	ec := s.cfg().Email

	m, err := buildMessage(ec, msg)
	if err != nil {
		return err
	}
	c, err := newClient(ec)
	if err != nil {
		return err
	}
	if err := s.send(ctx, c, m); err != nil {
		return classifySMTPError(err)
	}
	return nil
}

func newClient(ec config.EmailConfig) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(ec.SMTPPort),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(ec.SMTPUsername),
		mail.WithPassword(ec.Password()),
	}
	if ec.Timeout.Duration > 0 {
		opts = append(opts, mail.WithTimeout(ec.Timeout.Duration))
	}
	c, err := mail.NewClient(ec.SMTPServer, opts...)
	if err != nil {
		return nil, fmt.Errorf("notifier: smtp client: %w: %w", ErrInvalidMessage, err)
	}
	return c, nil
}

// buildMessage renders msg as a high-importance plain-text email from the
// SMTP user to the configured recipient.
func buildMessage(ec config.EmailConfig, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(ec.SMTPUsername); err != nil {
		return nil, fmt.Errorf("notifier: sender %q: %w: %w", ec.SMTPUsername, ErrInvalidMessage, err)
	}
	if err := m.To(ec.Recipient); err != nil {
		return nil, fmt.Errorf("notifier: '%s' is not a valid email format: %w: %w", ec.Recipient, ErrInvalidMessage, err)
	}
	m.Subject(msg.Subject)
	m.SetImportance(mail.ImportanceHigh)
	m.SetBodyString(mail.TypeTextPlain, "\n"+msg.Body)
	return m, nil
}

// SMTP reply codes treated as terminal.
var (
	authCodes      = map[int]bool{530: true, 534: true, 535: true}
	recipientCodes = map[int]bool{550: true, 551: true, 553: true}
)

// classifySMTPError maps a go-mail error onto the terminal sentinels.
// Anything unrecognized, including connection and protocol failures, is
// returned as is and therefore retried.
func classifySMTPError(err error) error {
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) && !sendErr.IsTemp() {
		switch sendErr.Reason {
		case mail.ErrSMTPRcptTo:
			return fmt.Errorf("notifier: smtp: %w: %w", ErrRecipientRejected, err)
		case mail.ErrGetRcpts, mail.ErrGetSender, mail.ErrNoUnencoded:
			return fmt.Errorf("notifier: smtp: %w: %w", ErrInvalidMessage, err)
		}
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch {
		case authCodes[tpErr.Code]:
			return fmt.Errorf("notifier: smtp: %w: %w", ErrAuthentication, err)
		case recipientCodes[tpErr.Code]:
			return fmt.Errorf("notifier: smtp: %w: %w", ErrRecipientRejected, err)
		}
	}
	return fmt.Errorf("notifier: smtp: %w", err)
}
