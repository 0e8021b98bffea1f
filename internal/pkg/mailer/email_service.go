// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"html"
	"time"

	"leadflow-be/internal/entity"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendTicketOpened(ticket *entity.SupportTicket) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	recipients  []string
	adminURL    string
}

func NewEmailService(host string, port int, username, password, senderName string, recipients []string, adminURL string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
		recipients:  recipients,
		adminURL:    adminURL,
	}
}

// NewNoopEmailService is used when SMTP is not configured.
func NewNoopEmailService() IEmailService {
	return noopEmailService{}
}

type noopEmailService struct{}

func (noopEmailService) SendTicketOpened(ticket *entity.SupportTicket) error {
	return nil
}

func (s *emailService) SendTicketOpened(ticket *entity.SupportTicket) error {
	if len(s.recipients) == 0 {
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", s.recipients...)
	m.SetHeader("Subject", fmt.Sprintf("[%s] Cancellation needs manual follow-up", ticket.Priority))
	m.SetBody("text/html", renderTicket(ticket, s.adminURL))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send ticket %s: %w", ticket.Id, err)
	}
	return nil
}

func renderTicket(ticket *entity.SupportTicket, adminURL string) string {
	meta := func(key string) string {
		if v, ok := ticket.Metadata[key]; ok && v != nil {
			return html.EscapeString(fmt.Sprint(v))
		}
		return "-"
	}
	deref := func(s *string) string {
		if s == nil || *s == "" {
			return "-"
		}
		return html.EscapeString(*s)
	}

	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Subscription cancelled</h2>
			<p>The provider charge must be stopped by hand.</p>
			<table cellpadding="4">
				<tr><td>Customer</td><td>%s</td></tr>
				<tr><td>Plan</td><td>%s</td></tr>
				<tr><td>Access until</td><td>%s</td></tr>
				<tr><td>Reason</td><td>%s</td></tr>
				<tr><td>Provider subscription</td><td>%s</td></tr>
				<tr><td>Provider transaction</td><td>%s</td></tr>
				<tr><td>Opened</td><td>%s</td></tr>
			</table>
			<p><a href="%s/tickets/%s">Open ticket</a></p>
		</div>
	`,
		meta("user_email"),
		meta("plan_name"),
		meta("access_until"),
		meta("reason"),
		deref(ticket.ProviderSubscriptionId),
		deref(ticket.ProviderTransactionId),
		ticket.CreatedAt.Format(time.RFC1123),
		html.EscapeString(adminURL), ticket.Id,
	)
}
