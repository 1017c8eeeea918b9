package notification

import (
	"context"
	"fmt"
	"net/smtp"
)

// SMTPEmailSender sends mail through a plain SMTP relay.
type SMTPEmailSender struct {
	Host string
	Port int
	From string
}

func NewSMTPEmailSender(host string, port int, from string) *SMTPEmailSender {
	return &SMTPEmailSender{Host: host, Port: port, From: from}
}

func (s *SMTPEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.From, to, subject, body))
	return smtp.SendMail(addr, nil, s.From, []string{to}, msg)
}
