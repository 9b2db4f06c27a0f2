package notify

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"
	"time"

	"github.com/smukkama/weathercloud-bridge/pkg/config"
)

// EmailNotifier sends an operator email when uploads keep failing.
type EmailNotifier struct {
	config *config.SMTPConfig
}

// NewEmailNotifier creates a new email notifier.
func NewEmailNotifier(cfg *config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{config: cfg}
}

type alertData struct {
	Streak  int
	LastErr string
	At      string
}

// SendUploadAlert sends an email reporting a streak of consecutive
// delivery failures.
func (e *EmailNotifier) SendUploadAlert(streak int, lastErr error) error {
	subject := fmt.Sprintf("WeatherCloud uploads failing (%d in a row)", streak)
	body, err := e.renderAlertTemplate(alertData{
		Streak:  streak,
		LastErr: lastErr.Error(),
		At:      time.Now().Format(time.RFC1123Z),
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return e.sendEmail(subject, body)
}

func (e *EmailNotifier) renderAlertTemplate(data alertData) (string, error) {
	tmpl := `
WeatherCloud Upload Failures
============================

Consecutive failed uploads: {{.Streak}}
Last error: {{.LastErr}}
Reported at: {{.At}}

Description:
The bridge has dropped {{.Streak}} archive records in a row after
exhausting its retries. Check the WeatherCloud endpoint, the account
credentials, and outbound connectivity.

Records are dropped after retry exhaustion; there is no dead-letter
store, so this data will not be resent.

---
WeatherCloud Bridge Notification System
`

	t, err := template.New("upload-alert").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (e *EmailNotifier) sendEmail(subject, body string) error {
	// Skip sending if SMTP is not configured
	if e.config.Username == "" || e.config.Password == "" {
		fmt.Printf("SMTP not configured, skipping email:\nSubject: %s\n%s\n", subject, body)
		return nil
	}

	message := fmt.Sprintf("From: %s\r\n", e.config.From)
	message += fmt.Sprintf("To: %s\r\n", e.config.To)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	if err := smtp.SendMail(addr, auth, e.config.From, []string{e.config.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	fmt.Printf("Email sent successfully: %s\n", subject)
	return nil
}
