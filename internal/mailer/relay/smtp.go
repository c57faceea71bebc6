package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"github.com/spec-kit/tecnochamados/internal/config"
)

// Envelope is one outgoing HTML message.
type Envelope struct {
	To      string
	Subject string
	HTML    string
}

// Transport delivers envelopes and reports the assigned Message-ID.
type Transport interface {
	Send(ctx context.Context, env Envelope) (string, error)
	Verify(ctx context.Context) error
}

// SMTPTransport submits mail through an authenticated SMTP server.
type SMTPTransport struct {
	cfg config.MailerConfig
}

func NewSMTPTransport(cfg config.MailerConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) client() (*mail.Client, error) {
	return mail.NewClient(t.cfg.SMTPHost,
		mail.WithPort(t.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(t.cfg.GmailUser),
		mail.WithPassword(t.cfg.GmailAppPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(30*time.Second),
	)
}

// Send builds the message and delivers it in a single SMTP session.
func (t *SMTPTransport) Send(ctx context.Context, env Envelope) (string, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(t.cfg.SenderName, t.cfg.GmailUser); err != nil {
		return "", fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(env.To); err != nil {
		return "", fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(env.Subject)
	msg.SetBodyString(mail.TypeTextHTML, env.HTML)

	id := uuid.NewString() + "@" + senderDomain(t.cfg.GmailUser)
	msg.SetMessageIDWithValue(id)

	client, err := t.client()
	if err != nil {
		return "", err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", err
	}
	return "<" + id + ">", nil
}

// Verify opens and closes an authenticated session.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	client, err := t.client()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return err
	}
	return client.Close()
}

func senderDomain(addr string) string {
	if at := strings.LastIndex(addr, "@"); at >= 0 && at < len(addr)-1 {
		return addr[at+1:]
	}
	return "localhost"
}
