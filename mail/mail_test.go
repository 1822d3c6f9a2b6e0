package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	reporterAuth "github.com/MrEthical07/reporterAuth"
)

func otpMessage(purpose reporterAuth.OTPPurpose) reporterAuth.OTPMessage {
	return reporterAuth.OTPMessage{
		To:        "a@x.com",
		Username:  "<alice>",
		Code:      "123456",
		Purpose:   purpose,
		ExpiresIn: 10 * time.Minute,
	}
}

func TestComposeVerification(t *testing.T) {
	raw, err := Compose("noreply@x.com", "Incident Reporter", otpMessage(reporterAuth.OTPPurposeVerification), time.Unix(0, 0))
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	s := string(raw)
	for _, want := range []string{
		"From: Incident Reporter <noreply@x.com>\r\n",
		"To: a@x.com\r\n",
		"Subject: Verify Your Email - OTP\r\n",
		"MIME-Version: 1.0\r\n",
		"multipart/alternative",
		"Your OTP is: 123456",
		"It expires in 10 minutes.",
		"&lt;alice&gt;",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("message missing %q:\n%s", want, s)
		}
	}
	if !strings.Contains(s, "<h2>Your OTP is: 123456</h2>") {
		t.Fatal("expected html part")
	}
}

func TestComposeLoginSubject(t *testing.T) {
	raw, err := Compose("noreply@x.com", "", otpMessage(reporterAuth.OTPPurposeLogin), time.Now())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.Contains(string(raw), "Subject: Your Login OTP\r\n") {
		t.Fatalf("unexpected subject:\n%s", raw)
	}
	if !strings.Contains(string(raw), "From: noreply@x.com\r\n") {
		t.Fatal("bare from address expected without a display name")
	}
}

func TestComposeRejectsHeaderInjection(t *testing.T) {
	msg := otpMessage(reporterAuth.OTPPurposeLogin)
	msg.To = "a@x.com\r\nBcc: evil@x.com"
	if _, err := Compose("noreply@x.com", "", msg, time.Now()); !errors.Is(err, ErrHeaderInjection) {
		t.Fatalf("expected ErrHeaderInjection, got %v", err)
	}
}

type smtpCapture struct {
	rcpt string
	data string
}

// fakeSMTP accepts one session without TLS or auth and reports what it received.
func fakeSMTP(t *testing.T) (string, int, <-chan smtpCapture) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan smtpCapture, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		var c smtpCapture
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			upper := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
				_ = tp.PrintfLine("250 localhost")
			case strings.HasPrefix(upper, "MAIL FROM:"):
				_ = tp.PrintfLine("250 OK")
			case strings.HasPrefix(upper, "RCPT TO:"):
				c.rcpt = strings.Trim(line[len("RCPT TO:"):], "<> ")
				_ = tp.PrintfLine("250 OK")
			case upper == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				b, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				c.data = string(b)
				_ = tp.PrintfLine("250 queued")
			case upper == "QUIT":
				_ = tp.PrintfLine("221 bye")
				got <- c
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return host, p, got
}

func TestSMTPSenderDelivers(t *testing.T) {
	host, port, got := fakeSMTP(t)
	s, err := NewSMTPSender(SMTPConfig{Host: host, Port: port, From: "noreply@x.com"})
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.SendOTP(ctx, otpMessage(reporterAuth.OTPPurposeVerification)); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case c := <-got:
		if c.rcpt != "a@x.com" {
			t.Fatalf("unexpected recipient %q", c.rcpt)
		}
		if !strings.Contains(c.data, "Your OTP is: 123456") || !strings.Contains(c.data, "From: Incident Reporter <noreply@x.com>") {
			t.Fatalf("unexpected data:\n%s", c.data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server saw no message")
	}
}

func TestSMTPSenderDialFailure(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "noreply@x.com"})
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	s.dial = func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}
	err = s.SendOTP(context.Background(), otpMessage(reporterAuth.OTPPurposeLogin))
	if err == nil || !strings.Contains(err.Error(), "mail.SendOTP: connection refused") {
		t.Fatalf("expected wrapped dial error, got %v", err)
	}
}

func TestNewSMTPSenderValidates(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{Port: 587, From: "x@x.com"}); err == nil {
		t.Fatal("expected error without host")
	}
	if _, err := NewSMTPSender(SMTPConfig{Host: "smtp.x.com", Port: 587}); err == nil {
		t.Fatal("expected error without from address")
	}
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.x.com", Port: 587, Username: "bot@x.com"})
	if err != nil {
		t.Fatalf("username doubles as from: %v", err)
	}
	if s.cfg.From != "bot@x.com" || s.cfg.FromName != "Incident Reporter" {
		t.Fatalf("unexpected defaults: %+v", s.cfg)
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := s.SendOTP(context.Background(), otpMessage(reporterAuth.OTPPurposeLogin)); err != nil {
		t.Fatalf("send: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "to=a@x.com") || !strings.Contains(out, "code=123456") || !strings.Contains(out, `subject="Your Login OTP"`) {
		t.Fatalf("unexpected log line: %s", out)
	}
}
