package inkpress

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// Notification is an owner-facing message produced by the contact flow.
// ReplyTo carries the visitor's address so the owner can answer directly.
type Notification struct {
	Subject string
	ReplyTo string
	Body    string
}

// Notifier delivers owner notifications. The contact flow treats it as
// an external collaborator: delivery failure is logged, never surfaced
// to the visitor, and never un-persists the inquiry.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ResendNotifier implements Notifier using the Resend API.
type ResendNotifier struct {
	client *resend.Client
	from   string
	to     string
}

// NewResendNotifier creates a Notifier that emails the site owner.
func NewResendNotifier(apiKey, from, to string) *ResendNotifier {
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

// Notify implements Notifier.
func (s *ResendNotifier) Notify(ctx context.Context, n Notification) error {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{s.to},
		Subject: n.Subject,
		Text:    n.Body,
		ReplyTo: n.ReplyTo,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: send notification: %w", err)
	}
	return nil
}

// NopNotifier discards notifications. Used when no mail credentials are
// configured and in tests.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Notification) error {
	return nil
}
