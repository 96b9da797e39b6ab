package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/adapter"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/jordan-wright/email"
)

type EmailConfig struct {
	Server   string
	Port     int
	Username string
	Password util.Secret
	From     string
	To       []string
}

type deliverFunc func(ctx context.Context, addr, host string, auth smtp.Auth, from string, to []string, body []byte) error

// EmailNotifier sends the HTML report with a plain-text alternative.
type EmailNotifier struct {
	cfg     EmailConfig
	deliver deliverFunc
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, deliver: deliverSMTP}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Notify(ctx context.Context, msg *adapter.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = n.cfg.From
	e.To = n.cfg.To
	e.Subject = msg.Subject
	e.Text = []byte(msg.PlainText)
	e.HTML = []byte(msg.HTML)

	body, err := e.Bytes()
	if err != nil {
		return fmt.Errorf("compose email: %w", err)
	}
	from, err := envelopeAddress(n.cfg.From)
	if err != nil {
		return err
	}
	to := make([]string, 0, len(n.cfg.To))
	for _, rcpt := range n.cfg.To {
		addr, err := envelopeAddress(rcpt)
		if err != nil {
			return err
		}
		to = append(to, addr)
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password.Reveal(), n.cfg.Server)
	}

	addr := net.JoinHostPort(n.cfg.Server, fmt.Sprint(n.cfg.Port))
	if err := n.deliver(ctx, addr, n.cfg.Server, auth, from, to, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func envelopeAddress(raw string) (string, error) {
	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("invalid email address %q: %w", raw, err)
	}
	return parsed.Address, nil
}

// deliverSMTP runs one SMTP session on a connection bound to ctx, so a stalled
// server cannot outlive the caller's deadline. Authentication is skipped when
// the server does not advertise AUTH.
func deliverSMTP(ctx context.Context, addr, host string, auth smtp.Auth, from string, to []string, body []byte) (err error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()
	defer func() {
		if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
			err = ctxErr
		}
	}()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if ok, _ := client.Extension("AUTH"); ok && auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
