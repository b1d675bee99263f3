package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendPaymentReceipt(toEmail, planName string, amount float64, currency, reference string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendPaymentReceipt(toEmail, planName string, amount float64, currency, reference string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Payment Received - TakaHub")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Thank you for your payment!</h2>
			<p>Your waste collection subscription is now active.</p>
			<table style="border-collapse: collapse;">
				<tr><td style="padding: 4px 12px 4px 0;"><b>Plan</b></td><td>%s</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;"><b>Amount</b></td><td>%s %.2f</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;"><b>Reference</b></td><td>%s</td></tr>
			</table>
			<p>Keep this email as your receipt.</p>
		</div>
	`, planName, currency, amount, reference)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send receipt to %s: %v\n", toEmail, err)
		return err
	}

	return nil
}
