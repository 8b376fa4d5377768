// Package mailer relays storefront contact-form messages to the shop inbox.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

var ErrInvalidMessage = errors.New("name, email and message are required")

// ContactMessage is what a visitor submits from the contact page.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (m ContactMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Email) == "" || strings.TrimSpace(m.Message) == "" {
		return ErrInvalidMessage
	}
	return nil
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends contact messages through an authenticated SMTP relay.
// The shop account is both sender and recipient; the visitor's address is
// set as Reply-To.
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	send     SendFunc
}

func NewSMTPMailer(host string, port int, user, password string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		send:     smtp.SendMail,
	}
}

// Send delivers msg. smtp.SendMail has no context support, so ctx is only
// checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg ContactMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	if err := m.send(addr, auth, m.user, []string{m.user}, m.compose(msg)); err != nil {
		return fmt.Errorf("send contact mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg ContactMessage) []byte {
	clean := func(s string) string {
		return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.user)
	fmt.Fprintf(&b, "To: %s\r\n", m.user)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", clean(msg.Email))
	fmt.Fprintf(&b, "Subject: New Message from %s\r\n", clean(msg.Name))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Name: %s\r\nEmail: %s\r\nMessage: %s\r\n", clean(msg.Name), clean(msg.Email), msg.Message)
	return []byte(b.String())
}
