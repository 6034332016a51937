// Package mailer sends staff notifications over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Email is one outgoing message. TextBody is required; HTMLBody is optional.
type Email struct {
	To       string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers an Email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config describes the SMTP relay.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Mailer is an SMTP Sender. Authentication is used only when User is set,
// so a local relay like Mailpit works without credentials.
type Mailer struct {
	cfg  Config
	log  *zap.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New constructs a Mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: logger, send: smtp.SendMail}
}

// Send builds a multipart/alternative message and hands it to the relay.
// smtp.SendMail has no context, so ctx is only checked before dialing.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, err := mail.ParseAddress(e.To)
	if err != nil {
		return fmt.Errorf("mailer: bad recipient %q: %w", e.To, err)
	}

	msg, err := m.build(e, to)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, []string{to.Address}, msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to.Address, err)
	}
	m.log.Debug("email sent", zap.String("to", to.Address), zap.String("subject", e.Subject))
	return nil
}

func (m *Mailer) build(e Email, to *mail.Address) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	from := mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}
	h := []string{
		"From: " + from.String(),
		"To: " + to.String(),
		"Subject: " + mime.QEncoding.Encode("utf-8", e.Subject),
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"Message-ID: <" + uuid.NewString() + "@" + domainOf(m.cfg.From) + ">",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + mw.Boundary(),
	}
	if e.ReplyTo != "" {
		if rt, err := mail.ParseAddress(e.ReplyTo); err == nil {
			h = append(h, "Reply-To: "+rt.String())
		}
	}
	header := strings.Join(h, "\r\n") + "\r\n\r\n"

	if err := writePart(mw, "text/plain", e.TextBody); err != nil {
		return nil, err
	}
	if e.HTMLBody != "" {
		if err := writePart(mw, "text/html", e.HTMLBody); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(header), buf.Bytes()...), nil
}

func writePart(mw *multipart.Writer, contentType, body string) error {
	pw, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType + "; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(pw)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
