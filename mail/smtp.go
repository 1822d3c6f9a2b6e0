package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	reporterAuth "github.com/MrEthical07/reporterAuth"
)

// SMTPConfig addresses the relay and the sender identity.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// InsecureSkipTLS disables STARTTLS; only for local relays such as MailHog.
	InsecureSkipTLS bool
}

// SMTPSender implements [reporterAuth.Mailer] over SMTP.
type SMTPSender struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
	now  func() time.Time
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, fmt.Errorf("mail: smtp host and port are required")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail: from address is required")
	}
	if cfg.FromName == "" {
		cfg.FromName = "Incident Reporter"
	}
	d := &net.Dialer{}
	return &SMTPSender{cfg: cfg, dial: d.DialContext, now: time.Now}, nil
}

// SendOTP composes and delivers msg. The context deadline bounds the whole
// SMTP conversation.
func (s *SMTPSender) SendOTP(ctx context.Context, msg reporterAuth.OTPMessage) error {
	const op = "mail.SendOTP"

	raw, err := Compose(s.cfg.From, s.cfg.FromName, msg, s.now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.deliver(ctx, msg.To, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, to string, raw []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	conn, err := s.dial(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if !s.cfg.InsecureSkipTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
				return err
			}
		}
	}
	if s.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
