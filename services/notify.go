package services

import (
	"context"
	"fmt"
	"log"

	"document-portal-gateway/config"
	"document-portal-gateway/models"
)

// StatusNotifier emails an uploader when an administrator changes one of
// their documents' verification status. Delivery is best effort: a failed or
// unconfigured mailer never fails the status update itself.
type StatusNotifier struct {
	client *PortalClient
	send   func(to []string, subject, html string) error
}

func NewStatusNotifier(client *PortalClient) *StatusNotifier {
	return &StatusNotifier{client: client, send: config.SendMail}
}

// NotifyStatusChange looks up the uploader's email and sends the notice.
// Call it in a goroutine after the upstream update succeeded.
func (n *StatusNotifier) NotifyStatusChange(ctx context.Context, token string, file *models.FileRecord, newStatus string) {
	if !config.MailConfigured() {
		return
	}
	if file.UploaderName == "" {
		return
	}

	email, err := n.uploaderEmail(ctx, token, file.UploaderName)
	if err != nil {
		log.Printf("Status notification skipped for %q: %v", file.UploaderName, err)
		return
	}
	if email == "" {
		return
	}

	subject := fmt.Sprintf("Your document %q is now %s", file.DisplayName(), newStatus)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>The document <strong>%s</strong> you uploaded has been marked <strong>%s</strong>.</p>",
		file.UploaderName, file.DisplayName(), newStatus,
	)
	if err := n.send([]string{email}, subject, body); err != nil {
		log.Printf("Status notification to %s failed: %v", email, err)
	}
}

func (n *StatusNotifier) uploaderEmail(ctx context.Context, token, username string) (string, error) {
	users, err := n.client.ListUsers(ctx, token)
	if err != nil {
		return "", err
	}
	for _, u := range users {
		if u.Username == username {
			return u.Email, nil
		}
	}
	return "", nil
}
