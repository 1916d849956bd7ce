package mail

import (
	"context"
	"fmt"
	"html/template"
	"net"
	"net/url"
	"strconv"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

const resetSubject = "ReadEase: reset your password"

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hello,</p>
<p>We received a request to reset the password of your ReadEase account.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>
</body>
</html>
`))

// sender is the part of *gomail.Client used by SMTPMailer.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPConfig describes the outgoing mail server.
type SMTPConfig struct {
	Addr     string
	User     string
	Password string
	From     string
	LinkURL  string
}

// SMTPMailer sends HTML emails through an SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	client sender
}

// NewSMTPMailer builds a client for cfg.Addr ("host" or "host:port").
// STARTTLS is used when the server offers it; PLAIN auth is enabled when
// cfg.User is set.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	host, port, err := splitAddr(cfg.Addr)
	if err != nil {
		return nil, err
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.User),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client error: %w", err)
	}

	return &SMTPMailer{cfg: cfg, client: client}, nil
}

func (m *SMTPMailer) SendResetPassword(ctx context.Context, to string, token string) error {
	msg, err := m.buildMessage(to, token)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(to string, token string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(resetSubject)

	data := struct{ Link string }{Link: resetLink(m.cfg.LinkURL, token)}
	if err := msg.SetBodyHTMLTemplate(resetTemplate, data); err != nil {
		return nil, fmt.Errorf("template error: %w", err)
	}

	return msg, nil
}

func splitAddr(addr string) (string, int, error) {
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, gomail.DefaultPort, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid smtp port %q: %w", p, err)
	}
	return host, port, nil
}

func resetLink(base string, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}
