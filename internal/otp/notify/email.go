package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

var errSMTPHostPortRequired = errors.New("notify: smtp host and port are required")

// EmailSender delivers codes over SMTP using net/smtp. The handoff to the
// SMTP server is the delivery guarantee; anything downstream of that is the
// mail system's problem.
type EmailSender struct {
	addr    string
	from    string
	subject string
	auth    smtp.Auth
}

// EmailConfig configures the SMTP backend.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
}

// NewEmailSender constructs the SMTP backend. Auth is optional for relays
// that trust the network.
func NewEmailSender(cfg EmailConfig) (*EmailSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, errSMTPHostPortRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = "Your one-time code"
	}

	return &EmailSender{
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:    cfg.From,
		subject: subject,
		auth:    auth,
	}, nil
}

func (s *EmailSender) Send(ctx context.Context, address, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	headers := []string{
		"From: " + s.from,
		"To: " + address,
		"Subject: " + s.subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	raw := strings.Join(headers, "\r\n") + "\r\n\r\n" + text + "\r\n"

	return smtp.SendMail(s.addr, s.auth, s.from, []string{address}, []byte(raw))
}
