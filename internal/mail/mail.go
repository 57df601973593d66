// Package mail sends transactional email (address verification, password
// reset) through SES, or logs it outside production.
package mail

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"socialhub/internal/config"
	"socialhub/internal/middleware"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the mailer selected by MAIL_DRIVER.
func New(cfg *config.Config) (Mailer, error) {
	switch cfg.MailDriver {
	case "ses":
		return NewSESMailer(cfg.MailFrom, cfg.S3Region)
	case "", "log":
		return LogMailer{}, nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.MailDriver)
	}
}

// LogMailer writes messages to the structured log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	middleware.Logger.InfoContext(ctx, "email (not sent)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.TextBody),
	)
	return nil
}

// VerificationMessage builds the address verification email.
func VerificationMessage(to, username, link string) Message {
	return Message{
		To:       to,
		Subject:  "Verify your email address",
		HTMLBody: fmt.Sprintf("<p>Hi %s,</p><p>Confirm your email address by opening <a href=\"%s\">this link</a>.</p>", html.EscapeString(username), html.EscapeString(link)),
		TextBody: fmt.Sprintf("Hi %s, confirm your email address by opening %s", username, link),
	}
}

// PasswordResetMessage builds the password reset email.
func PasswordResetMessage(to, username, token string) Message {
	return Message{
		To:       to,
		Subject:  "Reset your password",
		HTMLBody: fmt.Sprintf("<p>Hi %s,</p><p>Your password reset code is <strong>%s</strong>. It expires in one hour.</p>", html.EscapeString(username), html.EscapeString(token)),
		TextBody: fmt.Sprintf("Hi %s, your password reset code is %s. It expires in one hour.", username, token),
	}
}
