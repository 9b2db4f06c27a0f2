package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/smukkama/weathercloud-bridge/pkg/config"
)

func TestRenderAlertTemplate(t *testing.T) {
	n := NewEmailNotifier(&config.SMTPConfig{})

	body, err := n.renderAlertTemplate(alertData{
		Streak:  4,
		LastErr: "server returned 503 Service Unavailable",
		At:      "Mon, 02 Jan 2006 15:04:05 -0700",
	})
	if err != nil {
		t.Fatalf("renderAlertTemplate failed: %v", err)
	}

	if !strings.Contains(body, "Consecutive failed uploads: 4") {
		t.Error("Streak missing from alert body")
	}
	if !strings.Contains(body, "503 Service Unavailable") {
		t.Error("Last error missing from alert body")
	}
}

func TestSendUploadAlertUnconfigured(t *testing.T) {
	// Without SMTP credentials the alert is printed, not sent, and that
	// is not an error.
	n := NewEmailNotifier(&config.SMTPConfig{})
	if err := n.SendUploadAlert(3, errors.New("request failed")); err != nil {
		t.Errorf("Expected unconfigured SMTP to be a no-op, got %v", err)
	}
}
