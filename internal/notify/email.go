package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"os/exec"
	"strings"

	"github.com/hostwatch/hostwatch/internal/config"
	"github.com/hostwatch/hostwatch/pkg/types"
)

const (
	emailSMTPName     = "email-smtp"
	emailSendmailName = "email-sendmail"

	// EnvEmailFrom and EnvEmailTo are the message addresses, in RFC
	// 5322 form ("Name <user@host>" or bare "user@host").
	EnvEmailFrom = "EMAIL_FROM"
	EnvEmailTo   = "EMAIL_TO"

	// SMTP relay settings; user/password are optional (no auth when
	// both are unset).
	EnvEmailSMTPHost     = "EMAIL_SMTP_HOST"
	EnvEmailSMTPPort     = "EMAIL_SMTP_PORT"
	EnvEmailSMTPUser     = "EMAIL_SMTP_USER"
	EnvEmailSMTPPassword = "EMAIL_SMTP_PASSWORD"

	defaultSMTPPort     = "25"
	defaultSendmailPath = "/usr/sbin/sendmail"
)

// sendFunc hands a fully composed RFC 5322 message to a transport. The
// transport itself (SMTP relay or local sendmail) is an external
// collaborator; the notifier only composes and hands off.
type sendFunc func(ctx context.Context, from string, to []string, msg []byte) error

// Email composes an addressed plain-text message whose body is the
// human-readable rendering of the CheckResult.
type Email struct {
	name string
	from *mail.Address
	to   *mail.Address
	send sendFunc
}

func parseMailbox(envName, value string) (*mail.Address, error) {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return nil, &types.ConfigError{Name: envName, Value: value, Err: err}
	}
	return addr, nil
}

func newEmail(name, from, to string, send sendFunc) (*Email, error) {
	fromAddr, err := parseMailbox(EnvEmailFrom, from)
	if err != nil {
		return nil, err
	}
	toAddr, err := parseMailbox(EnvEmailTo, to)
	if err != nil {
		return nil, err
	}
	return &Email{name: name, from: fromAddr, to: toAddr, send: send}, nil
}

// NewEmailSMTP creates an email notifier delivering through an SMTP
// relay. auth may be nil for relays that accept unauthenticated mail.
func NewEmailSMTP(from, to, addr string, auth smtp.Auth) (*Email, error) {
	send := func(_ context.Context, envFrom string, envTo []string, msg []byte) error {
		if err := smtp.SendMail(addr, auth, envFrom, envTo, msg); err != nil {
			return fmt.Errorf("sending mail via %s: %w", addr, err)
		}
		return nil
	}
	return newEmail(emailSMTPName, from, to, send)
}

// NewEmailSendmail creates an email notifier piping the message to a
// local sendmail binary.
func NewEmailSendmail(from, to, sendmailPath string) (*Email, error) {
	send := func(ctx context.Context, envFrom string, envTo []string, msg []byte) error {
		args := append([]string{"-f", envFrom}, envTo...)
		cmd := exec.CommandContext(ctx, sendmailPath, args...)
		cmd.Stdin = bytes.NewReader(msg)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("running %s: %w (%s)", sendmailPath, err, strings.TrimSpace(string(out)))
		}
		return nil
	}
	return newEmail(emailSendmailName, from, to, send)
}

// NewEmailSMTPFromEnv builds the notifier from environment variables.
func NewEmailSMTPFromEnv() (Notifier, error) {
	from, err := config.Env(EnvEmailFrom)
	if err != nil {
		return nil, err
	}
	to, err := config.Env(EnvEmailTo)
	if err != nil {
		return nil, err
	}
	host, err := config.Env(EnvEmailSMTPHost)
	if err != nil {
		return nil, err
	}
	port := config.EnvDefault(EnvEmailSMTPPort, defaultSMTPPort)

	var auth smtp.Auth
	user := config.EnvOption(EnvEmailSMTPUser)
	password := config.EnvOption(EnvEmailSMTPPassword)
	if user != "" && password != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}
	return NewEmailSMTP(from, to, host+":"+port, auth)
}

// NewEmailSendmailFromEnv builds the notifier from environment variables.
func NewEmailSendmailFromEnv() (Notifier, error) {
	from, err := config.Env(EnvEmailFrom)
	if err != nil {
		return nil, err
	}
	to, err := config.Env(EnvEmailTo)
	if err != nil {
		return nil, err
	}
	return NewEmailSendmail(from, to, defaultSendmailPath)
}

// Name implements Notifier.
func (n *Email) Name() string { return n.name }

// composeMessage renders the RFC 5322 message for a result.
func (n *Email) composeMessage(result *types.CheckResult) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", n.from.String())
	fmt.Fprintf(&b, "To: %s\r\n", n.to.String())
	fmt.Fprintf(&b, "Subject: Server availability notification for %s\r\n", result.ProviderName)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(result.String(), "\n", "\r\n"))
	return b.Bytes()
}

// Notify implements Notifier.
func (n *Email) Notify(ctx context.Context, result *types.CheckResult) error {
	msg := n.composeMessage(result)
	return n.send(ctx, n.from.Address, []string{n.to.Address}, msg)
}

// Test implements Notifier.
func (n *Email) Test(ctx context.Context) error {
	return n.Notify(ctx, types.Dummy())
}
