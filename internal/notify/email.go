package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/taskpad/taskpad-go/internal/config"
)

// dialer is the part of gomail.Dialer the notifier needs.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier sends verification links over SMTP. Without SMTP settings
// it logs the link instead, which is enough for local development.
type EmailNotifier struct {
	cfg     config.SMTPConfig
	baseURL string
	dialer  dialer
}

// NewEmailNotifier creates a new EmailNotifier.
func NewEmailNotifier(cfg config.SMTPConfig, baseURL string) *EmailNotifier {
	n := &EmailNotifier{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	if cfg.Enabled() {
		n.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	}
	return n
}

// VerificationLink builds the URL a user follows to verify their address.
func (n *EmailNotifier) VerificationLink(token string) string {
	return n.baseURL + "/api/v1/auth/verify?token=" + url.QueryEscape(token)
}

// SendVerification emails the verification link to the given address.
func (n *EmailNotifier) SendVerification(ctx context.Context, to, username, token string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("empty recipient")
	}
	link := n.VerificationLink(token)

	if n.dialer == nil {
		slog.Info("smtp not configured, verification link logged", "to", to, "link", link)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Verify your Taskpad account")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nConfirm your email address by opening the link below. It expires in 24 hours.\n\n%s\n",
		username, link,
	))

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	slog.Info("verification email sent", "to", to)
	return nil
}
