package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 465
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// SMTPSender sends mail over implicit TLS (port 465) or, with PlainText, an unencrypted
// connection that is upgraded with STARTTLS when the server offers it.
type SMTPSender struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	PlainText bool
}

func (s *SMTPSender) addr() string {
	host, port := s.Host, s.Port
	if host == "" {
		host = DefaultSMTPHost
	}
	if port == 0 {
		port = DefaultSMTPPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	if strings.TrimSpace(email.To) == "" {
		return errors.New("recipient address is required")
	}

	from := s.From
	if from == "" {
		from = s.Username
	}
	if from == "" {
		return errors.New("sender address is required")
	}

	addr := s.addr()
	host, _, _ := net.SplitHostPort(addr)

	conn, err := s.dial(ctx, addr, host)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if s.PlainText {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.Username, s.Password, host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(email.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(buildMessage(from, email)); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	return client.Quit()
}

func (s *SMTPSender) dial(ctx context.Context, addr, host string) (net.Conn, error) {
	if s.PlainText {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}
	d := &tls.Dialer{Config: &tls.Config{ServerName: host}}
	return d.DialContext(ctx, "tcp", addr)
}

func buildMessage(from string, email Email) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", email.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")

	body := strings.ReplaceAll(email.Body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}
