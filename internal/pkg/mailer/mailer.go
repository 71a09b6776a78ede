package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender delivers transactional mail. The auth service only needs OTP
// delivery, so the surface stays that narrow.
type Sender interface {
	SendOTP(toEmail, otp string, expireMinutes int) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *smtpSender) SendOTP(toEmail, otp string, expireMinutes int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "OTP for login")
	m.SetBody("text/plain", fmt.Sprintf("Your OTP is %s. It expires in %d minutes.", otp, expireMinutes))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send otp mail failed: %w", err)
	}
	return nil
}
