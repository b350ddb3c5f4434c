package export

import (
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP is a minimal plaintext relay that accepts or rejects AUTH.
type fakeSMTP struct {
	ln     net.Listener
	authOK bool

	mu   sync.Mutex
	data []string
}

func startFakeSMTP(t *testing.T, authOK bool) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeSMTP{ln: ln, authOK: authOK}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.data...)
}

func (s *fakeSMTP) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeSMTP) handle(conn net.Conn) {
	defer conn.Close()
	tc := textproto.NewConn(conn)
	_ = tc.PrintfLine("220 fake.local ESMTP")
	for {
		line, err := tc.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			_ = tc.PrintfLine("250-fake.local")
			_ = tc.PrintfLine("250 AUTH PLAIN")
		case strings.HasPrefix(cmd, "AUTH"):
			if s.authOK {
				_ = tc.PrintfLine("235 2.7.0 Authentication successful")
			} else {
				_ = tc.PrintfLine("535 5.7.8 Username and Password not accepted")
			}
		case cmd == "*":
			_ = tc.PrintfLine("501 5.5.2 Authentication aborted")
		case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
			_ = tc.PrintfLine("250 2.1.0 OK")
		case cmd == "DATA":
			_ = tc.PrintfLine("354 Go ahead")
			body, err := tc.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = append(s.data, string(body))
			s.mu.Unlock()
			_ = tc.PrintfLine("250 2.0.0 Queued")
		case cmd == "QUIT":
			_ = tc.PrintfLine("221 2.0.0 Bye")
			return
		default:
			_ = tc.PrintfLine("502 5.5.1 Unrecognized command")
		}
	}
}

func testMailer(port int) *SMTPMailer {
	return NewSMTPMailer(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "bot@resumebot.test",
		Password: "app-password",
		Insecure: true,
		Timeout:  5 * time.Second,
	})
}

func TestSMTPMailer_Delivers(t *testing.T) {
	srv := startFakeSMTP(t, true)
	m := testMailer(srv.port())

	msg, err := RenderOTPEmail("alice@x.com", "123456", 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, m.Send(context.Background(), msg))

	got := srv.messages()
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "To: alice@x.com")
	assert.Contains(t, got[0], "From: bot@resumebot.test")
	assert.Contains(t, got[0], "123456")
}

func TestSMTPMailer_AuthRejected(t *testing.T) {
	srv := startFakeSMTP(t, false)
	m := testMailer(srv.port())

	err := m.Send(context.Background(), Message{To: "alice@x.com", Subject: "s", HTML: "<p>x</p>"})
	assert.ErrorIs(t, err, common.ErrEmailAuth)
	assert.NotErrorIs(t, err, common.ErrEmailTransport)
	assert.Empty(t, srv.messages())
}

func TestSMTPMailer_TransportFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	err = testMailer(port).Send(context.Background(), Message{To: "alice@x.com", Subject: "s", HTML: "x"})
	assert.ErrorIs(t, err, common.ErrEmailTransport)
	assert.NotErrorIs(t, err, common.ErrEmailAuth)
}

func TestSMTPMailer_RequiresStartTLSUnlessInsecure(t *testing.T) {
	srv := startFakeSMTP(t, true)
	m := NewSMTPMailer(SMTPConfig{
		Host: "127.0.0.1", Port: srv.port(),
		Username: "bot@resumebot.test", Password: "pw",
		Timeout: 5 * time.Second,
	})

	err := m.Send(context.Background(), Message{To: "alice@x.com", Subject: "s", HTML: "x"})
	assert.ErrorIs(t, err, common.ErrEmailTransport)
	assert.Contains(t, err.Error(), "STARTTLS")
}

func TestSMTPMailer_NotConfigured(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.gmail.com", Port: 587})
	assert.False(t, m.Configured())

	err := m.Send(context.Background(), Message{To: "alice@x.com"})
	assert.ErrorIs(t, err, common.ErrEmailNotConfigured)
}

func TestBuildMIME_Headers(t *testing.T) {
	raw := string(buildMIME("bot@resumebot.test", Message{To: "a@x.com", Subject: "AI Resume Analysis Report - cv.pdf", HTML: "<p>hi</p>\n"}))

	assert.Contains(t, raw, "Content-Type: text/html; charset=\"utf-8\"\r\n")
	assert.Contains(t, raw, "@resumebot.test>\r\n")
	assert.True(t, strings.HasSuffix(raw, "<p>hi</p>\r\n"))
	assert.Equal(t, "resumebot.test", domainOf("bot@resumebot.test"))
	assert.Equal(t, "localhost", domainOf("nobody"))
}

func TestRenderOTPEmail(t *testing.T) {
	msg, err := RenderOTPEmail("a@x.com", "042917", 10*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "AI Resume Bot - Password Reset OTP", msg.Subject)
	assert.Equal(t, "a@x.com", msg.To)
	assert.Contains(t, msg.HTML, "042917")
	assert.Contains(t, msg.HTML, "valid for 10 minutes")
}

func TestRenderFeedbackEmail(t *testing.T) {
	tests := []struct {
		score int
		color string
	}{
		{92, "#44ff44"},
		{85, "#44ff44"},
		{70, "#ffaa00"},
		{69, "#ff4444"},
	}
	for _, tc := range tests {
		t.Run(strconv.Itoa(tc.score), func(t *testing.T) {
			msg, err := RenderFeedbackEmail("a@x.com", "cv.pdf", "Dev", "Use <b>metrics</b>", tc.score)
			require.NoError(t, err)

			assert.Equal(t, "AI Resume Analysis Report - cv.pdf", msg.Subject)
			assert.Contains(t, msg.HTML, "background: "+tc.color)
			assert.Contains(t, msg.HTML, "Resume Score: "+strconv.Itoa(tc.score)+"/100")
			assert.Contains(t, msg.HTML, "&lt;b&gt;metrics&lt;/b&gt;")
		})
	}
}
