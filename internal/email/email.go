// Package email sends the account emails: the welcome message and the
// password reset link.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
)

// Subjects of the messages the Mailer sends.
const (
	SubjectWelcome       = "Welcome to the Natours Family!"
	SubjectPasswordReset = "Your password reset token (valid for only 10 minutes)"
)

// Message is one plain-text email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Mailer renders the account messages and hands them to a Sender.
type Mailer struct {
	sender Sender
}

// NewMailer creates a mailer delivering through sender.
func NewMailer(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

// SendWelcome greets a new user. url points at their account page.
func (m *Mailer) SendWelcome(ctx context.Context, u *domain.User, url string) error {
	body := fmt.Sprintf(`Hi %s,

Welcome to Natours, we're glad to have you!

We're all a big family here, so make sure to upload your user photo so we get to know you a bit better:
%s

If you need any help with booking your next tour, please don't hesitate to contact me!

- The Natours team
`, u.FirstName(), url)

	return m.send(ctx, u, SubjectWelcome, body)
}

// SendPasswordReset mails the reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, u *domain.User, resetURL string) error {
	body := fmt.Sprintf(`Hi %s,

Forgot your password? Submit a PATCH request with your new password and passwordConfirm to:
%s

If you didn't forget your password, please ignore this email!
`, u.FirstName(), resetURL)

	return m.send(ctx, u, SubjectPasswordReset, body)
}

func (m *Mailer) send(ctx context.Context, u *domain.User, subject, body string) error {
	err := m.sender.Send(ctx, Message{
		To:      u.Email,
		ToName:  u.Name,
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("send %q: %w", subject, err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender for development.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, m Message) error {
	s.logger.InfoContext(ctx, "email not delivered (log sender)",
		slog.String("to", m.To),
		slog.String("subject", m.Subject),
		slog.String("body", m.Text),
	)
	return nil
}
