package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/example/foty/internal/models"
)

// MailService sends transactional and newsletter email through the configured
// SMTP relay.
type MailService struct {
	dialer     *gomail.Dialer
	from       string
	adminEmail string
}

// NewMailService creates a MailService. With an empty host the service is a
// logging no-op, so local environments work without an SMTP relay.
func NewMailService(host string, port int, user, pass, from, adminEmail string) *MailService {
	var dialer *gomail.Dialer
	if host != "" {
		dialer = gomail.NewDialer(host, port, user, pass)
	}
	return &MailService{
		dialer:     dialer,
		from:       from,
		adminEmail: adminEmail,
	}
}

// Send delivers a single HTML email.
func (s *MailService) Send(to, subject, htmlBody string) error {
	if s.dialer == nil {
		log.Printf("[Mail] SMTP not configured, skipping %q to %s", subject, to)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	log.Printf("[Mail] sent to %s, subject %q", to, subject)
	return nil
}

// NotifyDonationCompleted tells the admin about a settled donation. No-op when
// no admin recipient is configured.
func (s *MailService) NotifyDonationCompleted(donation *models.Donation) error {
	if s.adminEmail == "" {
		return nil
	}

	receipt := ""
	if donation.MpesaReceipt != nil {
		receipt = *donation.MpesaReceipt
	}

	body := fmt.Sprintf(
		`<p>A donation has been completed.</p>
<ul>
  <li>Amount: KES %d</li>
  <li>Phone: %s</li>
  <li>Receipt: %s</li>
</ul>`,
		donation.Amount, donation.Phone, receipt,
	)

	return s.Send(s.adminEmail, "FOTY: donation completed", body)
}
