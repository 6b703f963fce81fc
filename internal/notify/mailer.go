package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Mailer — шлюз уведомлений поверх net/smtp.
// Работает с MailHog (без аутентификации) и обычными серверами (PlainAuth).
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
	// If true, skip TLS certificate verification (useful for local dev like MailHog).
	InsecureSkipVerify bool
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from}
}

// Send отправляет HTML-письмо. Ошибка доставки возвращается как есть:
// ретраи — забота вызывающего.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	headers := map[string]string{
		"From":         m.from,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}
	var sb strings.Builder
	for k, v := range headers {
		sb.WriteString(k + ": " + v + "\r\n")
	}
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer c.Quit()

	if err := c.Hello("localhost"); err != nil {
		return err
	}

	// STARTTLS, если сервер умеет
	if ok, _ := c.Extension("STARTTLS"); ok {
		cfg := &tls.Config{
			ServerName:         m.host,
			InsecureSkipVerify: m.InsecureSkipVerify,
		}
		if err := c.StartTLS(cfg); err != nil {
			return err
		}
		// после TLS — повторим EHLO для обновления расширений
		if err := c.Hello("localhost"); err != nil {
			return err
		}
	}

	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(sb.String())); err != nil {
		return err
	}
	return w.Close()
}

// BidOTPBody — письмо с кодом подтверждения предложения
func BidOTPBody(code string) string {
	return fmt.Sprintf(`<p>Your OTP for bid verification is: <strong>%s</strong></p><p>The code is valid for 5 minutes.</p>`, code)
}

// EmailOTPBody — письмо с кодом подтверждения e-mail
func EmailOTPBody(code string) string {
	return fmt.Sprintf(`<p>Your email verification code is: <strong>%s</strong></p><p>The code is valid for 5 minutes.</p>`, code)
}

// ApprovalBody — уведомление об одобрении предложения
func ApprovalBody(listingName string, quantity int) string {
	return fmt.Sprintf(`<p>Your bid for <strong>%s</strong> (quantity %d) has been approved.</p>`, listingName, quantity)
}
