package mailer

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridAdapter implements the mailer.Client interface on top of the
// SendGrid v3 API.
type SendGridAdapter struct {
	client   *sendgrid.Client
	fromAddr string
	fromName string
}

func NewSendGridAdapter(apiKey, fromAddr, fromName string) *SendGridAdapter {
	return &SendGridAdapter{
		client:   sendgrid.NewSendClient(apiKey),
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

// Send delivers one HTML email to all recipients in a single API call.
func (a *SendGridAdapter) Send(to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients given")
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(a.fromName, a.fromAddr))
	m.Subject = subject

	p := mail.NewPersonalization()
	for _, addr := range to {
		p.AddTos(mail.NewEmail("", addr))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", htmlBody))

	resp, err := a.client.Send(m)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send rejected with status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
