// Package mail delivers reset-password emails.
package mail

import (
	"context"

	"github.com/readease/readease/internal/logging"
)

// Mailer sends the reset-password email carrying token to address to.
type Mailer interface {
	SendResetPassword(ctx context.Context, to string, token string) error
}

// LogMailer writes the reset link to the log instead of sending it. Used
// when no SMTP server is configured.
type LogMailer struct {
	logger  logging.Logger
	linkURL string
}

func NewLogMailer(logger logging.Logger, linkURL string) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mail"), linkURL: linkURL}
}

func (m *LogMailer) SendResetPassword(ctx context.Context, to string, token string) error {
	m.logger.Info(ctx, "reset password email", "to", to, "link", resetLink(m.linkURL, token))
	return nil
}
