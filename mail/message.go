package mail

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	reporterAuth "github.com/MrEthical07/reporterAuth"
)

const (
	subjectVerification = "Verify Your Email - OTP"
	subjectLogin        = "Your Login OTP"
)

// ErrHeaderInjection is returned when an address or name contains CR or LF.
var ErrHeaderInjection = errors.New("mail: header value contains line break")

// Subject returns the subject line used for purpose.
func Subject(purpose reporterAuth.OTPPurpose) string {
	if purpose == reporterAuth.OTPPurposeLogin {
		return subjectLogin
	}
	return subjectVerification
}

func minutes(d time.Duration) int {
	m := int(d.Round(time.Minute) / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

func textBody(msg reporterAuth.OTPMessage) string {
	var intro string
	switch msg.Purpose {
	case reporterAuth.OTPPurposeLogin:
		intro = "Use this code to finish signing in."
	default:
		intro = "Use this code to verify your email address."
	}
	return fmt.Sprintf("Hello %s,\r\n\r\n%s\r\n\r\nYour OTP is: %s\r\nIt expires in %d minutes.\r\n",
		msg.Username, intro, msg.Code, minutes(msg.ExpiresIn))
}

func htmlBody(msg reporterAuth.OTPMessage) string {
	return fmt.Sprintf("<p>Hello %s,</p><h2>Your OTP is: %s</h2><p>It expires in %d minutes.</p>",
		html.EscapeString(msg.Username), html.EscapeString(msg.Code), minutes(msg.ExpiresIn))
}

func checkHeader(values ...string) error {
	for _, v := range values {
		if strings.ContainsAny(v, "\r\n") {
			return ErrHeaderInjection
		}
	}
	return nil
}

// Compose renders msg as a multipart/alternative RFC 5322 message.
func Compose(from, fromName string, msg reporterAuth.OTPMessage, now time.Time) ([]byte, error) {
	if err := checkHeader(from, fromName, msg.To); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, part := range []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", textBody(msg)},
		{"text/html; charset=UTF-8", htmlBody(msg)},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	fromHeader := from
	if fromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", fromName), from)
	}
	fmt.Fprintf(&out, "From: %s\r\n", fromHeader)
	fmt.Fprintf(&out, "To: %s\r\n", msg.To)
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", Subject(msg.Purpose)))
	fmt.Fprintf(&out, "Date: %s\r\n", now.Format(time.RFC1123Z))
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
