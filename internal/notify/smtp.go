package notify

import (
	"context"

	gomail "gopkg.in/gomail.v2"
)

// SMTPSender delivers email messages through a configured SMTP relay.
type SMTPSender struct {
	from   string
	dialer *gomail.Dialer
}

// sendMail is a seam for testing without a live SMTP server.
var sendMail = func(d *gomail.Dialer, m *gomail.Message) error {
	return d.DialAndSend(m)
}

// NewSMTPSender constructs an email sender. The dialer is created once per
// process and injected; nothing here reads the environment.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		from:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return sendMail(s.dialer, m)
}
