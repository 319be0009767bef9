package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/resend/resend-go/v2"
)

// Deliverer hands a rendered message to the outside world.
type Deliverer interface {
	Deliver(ctx context.Context, job EmailJob) error
}

type ResendDeliverer struct {
	client *resend.Client
	from   string
}

func NewResendDeliverer(apiKey, from, fromName string) *ResendDeliverer {
	return &ResendDeliverer{
		client: resend.NewClient(apiKey),
		from:   formatFrom(from, fromName),
	}
}

func (d *ResendDeliverer) Deliver(ctx context.Context, job EmailJob) error {
	params := &resend.SendEmailRequest{
		From:    d.from,
		To:      []string{job.To},
		Subject: job.Subject,
		Html:    job.Body,
	}

	if _, err := d.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}

// SMTPDeliverer is used when no Resend API key is configured, e.g. against a
// local mail catcher.
type SMTPDeliverer struct {
	from     string
	fromName string
	host     string
	port     string
	user     string
	pass     string
}

func NewSMTPDeliverer(from, fromName, host, port, user, pass string) *SMTPDeliverer {
	return &SMTPDeliverer{from: from, fromName: fromName, host: host, port: port, user: user, pass: pass}
}

func (d *SMTPDeliverer) Deliver(_ context.Context, job EmailJob) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", formatFrom(d.from, d.fromName))
	fmt.Fprintf(&b, "To: %s\r\n", job.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", job.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n" + job.Body)

	var auth smtp.Auth
	if d.user != "" && d.pass != "" {
		auth = smtp.PlainAuth("", d.user, d.pass, d.host)
	}

	return smtp.SendMail(d.host+":"+d.port, auth, d.from, []string{job.To}, []byte(b.String()))
}

func formatFrom(from, name string) string {
	if name == "" {
		return from
	}
	return fmt.Sprintf("%s <%s>", name, from)
}
