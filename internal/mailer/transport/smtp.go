package transport

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/jordan-wright/email"
)

// MailTransporter sends a fully assembled mail.
type MailTransporter interface {
	Send(mail *email.Email) error
}

type SMTPMailTransport struct {
	cfg config.SMTP
}

func NewSMTP(cfg config.SMTP) *SMTPMailTransport {
	return &SMTPMailTransport{cfg: cfg}
}

func (m *SMTPMailTransport) Send(mail *email.Email) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if m.cfg.UseTLS {
		return mail.SendWithStartTLS(addr, auth, &tls.Config{ServerName: m.cfg.Host})
	}

	return mail.Send(addr, auth)
}
