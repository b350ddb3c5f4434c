// Package export holds the outbound adapters: SMTP email, text-to-speech,
// PDF rendering and CSV history export.
package export

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/rs/zerolog/log"
)

// Message is one outgoing HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends email. Implementations classify failures as
// common.ErrEmailNotConfigured, common.ErrEmailAuth or common.ErrEmailTransport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Insecure bool
	Timeout  time.Duration
}

// SMTPMailer delivers through an SMTP relay using STARTTLS, or implicit TLS
// on port 465.
type SMTPMailer struct {
	cfg       SMTPConfig
	tlsConfig *tls.Config
}

// NewSMTPMailer creates a new SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPMailer{
		cfg:       cfg,
		tlsConfig: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
	}
}

// Configured reports whether credentials are present.
func (m *SMTPMailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.Username != "" && m.cfg.Password != ""
}

func transportErr(step string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrEmailTransport, step, err)
}

// Send delivers msg. The context deadline bounds the whole exchange.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.Configured() {
		return common.ErrEmailNotConfigured
	}

	deadline := time.Now().Add(m.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	dialer := &net.Dialer{Deadline: deadline}
	var conn net.Conn
	var err error
	if m.cfg.Port == 465 {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, m.tlsConfig)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return transportErr("dial", err)
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return transportErr("greeting", err)
	}
	defer c.Close()

	if m.cfg.Port != 465 && !m.cfg.Insecure {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return transportErr("starttls", errors.New("server does not support STARTTLS"))
		}
		if err := c.StartTLS(m.tlsConfig); err != nil {
			return transportErr("starttls", err)
		}
	}

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := c.Auth(auth); err != nil {
		var protoErr *textproto.Error
		if errors.As(err, &protoErr) && protoErr.Code >= 500 {
			return fmt.Errorf("%w: %v", common.ErrEmailAuth, err)
		}
		return transportErr("auth", err)
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return transportErr("mail from", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return transportErr("rcpt to", err)
	}
	w, err := c.Data()
	if err != nil {
		return transportErr("data", err)
	}
	if _, err := w.Write(buildMIME(m.cfg.From, msg)); err != nil {
		return transportErr("data", err)
	}
	if err := w.Close(); err != nil {
		return transportErr("data", err)
	}
	if err := c.Quit(); err != nil {
		log.Warn().Err(err).Msg("SMTP QUIT failed after delivery")
	}

	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Email sent")
	return nil
}

func buildMIME(from string, msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domainOf(from))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.HTML, "\n", "\r\n"))
	return b.Bytes()
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
