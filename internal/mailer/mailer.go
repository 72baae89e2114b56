package mailer

import (
	"context"
	"fmt"

	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/agoravoting/election-orchestra/internal/mailer/transport"
	"github.com/agoravoting/election-orchestra/internal/util"
	"github.com/jordan-wright/email"
	"github.com/pkg/errors"
)

// Mailer notifies the human operator about ceremonies awaiting approval.
type Mailer struct {
	cfg       config.Mailer
	Transport transport.MailTransporter
}

func New(cfg config.Mailer, transporter transport.MailTransporter) *Mailer {
	return &Mailer{
		cfg:       cfg,
		Transport: transporter,
	}
}

// NewWithConfig wires the SMTP transport, or the mock when sending is
// disabled (local development, tests).
func NewWithConfig(cfg config.Mailer, smtp config.SMTP) *Mailer {
	if !cfg.Send {
		return New(cfg, transport.NewMock())
	}
	return New(cfg, transport.NewSMTP(smtp))
}

// SendApprovalRequest mails the election summary to the operator, asking
// for an explicit accept/reject decision.
func (m *Mailer) SendApprovalRequest(ctx context.Context, to, electionID, summary string) error {
	log := util.LogFromContext(ctx)

	mail := email.NewEmail()
	mail.From = m.cfg.DefaultSender
	mail.To = []string{to}
	mail.Subject = fmt.Sprintf("[election-orchestra] approval requested for election %s", electionID)
	mail.Text = []byte(summary)

	if err := m.Transport.Send(mail); err != nil {
		return errors.Wrapf(err, "send approval request for election %s", electionID)
	}

	log.Debug().Str("election_id", electionID).Str("to", to).Msg("Sent approval request mail")
	return nil
}
