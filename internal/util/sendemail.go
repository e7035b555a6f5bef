package util

import (
	"gopkg.in/gomail.v2"
)

// SendEmail delivers one HTML message. SMTP auth is only attempted when a
// password is configured, so local relays without AUTH keep working.
func SendEmail(smtpHost string, smtpPort int, senderName string, senderEmail string, senderPassword string, receiverEmail string, subject string, body string) error {
	mailer := gomail.NewMessage()
	mailer.SetAddressHeader("From", senderEmail, senderName)
	mailer.SetHeader("To", receiverEmail)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/html", body)

	dialer := &gomail.Dialer{Host: smtpHost, Port: smtpPort}
	if senderPassword != "" {
		dialer.Username = senderEmail
		dialer.Password = senderPassword
	}

	return dialer.DialAndSend(mailer)
}
