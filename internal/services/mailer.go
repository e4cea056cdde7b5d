package services

import (
	"fmt"

	"github.com/projecthub/backend/internal/config"
	"github.com/projecthub/backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email over SMTP. When SMTP is disabled the
// mailer degrades to logging the message and dropping it.
type Mailer struct {
	cfg *config.SMTPConfig
}

func NewMailer(cfg *config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers a single mail task.
func (m *Mailer) Send(task *MailTask) error {
	if !m.cfg.Enabled {
		logger.Debug().
			Str("to", task.To).
			Str("subject", task.Subject).
			Msg("smtp disabled, dropping mail")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", task.To)
	msg.SetHeader("Subject", task.Subject)
	msg.SetBody("text/html", task.HTMLBody)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", task.To, err)
	}

	logger.Info().Str("to", task.To).Str("subject", task.Subject).Msg("mail sent")
	return nil
}

// MemberInvitationMail builds the mail sent when a user is added to a project.
func MemberInvitationMail(to, username, projectName, role string) *MailTask {
	return &MailTask{
		To:      to,
		Subject: fmt.Sprintf("You were added to project %s", projectName),
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p>You have been added to the project <b>%s</b> as <b>%s</b>.</p>",
			username, projectName, role),
	}
}

// WelcomeMail builds the mail sent after registration.
func WelcomeMail(to, username string) *MailTask {
	return &MailTask{
		To:       to,
		Subject:  "Welcome to ProjectHub",
		HTMLBody: fmt.Sprintf("<p>Hi %s,</p><p>Your account is ready.</p>", username),
	}
}
