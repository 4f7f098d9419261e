package mail

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

// fakeSMTP accepts one message and hands back the DATA payload.
func fakeSMTP(t *testing.T) (string, <-chan string) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { lis.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := lis.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(line string) { io.WriteString(conn, line+"\r\n") }

		reply("220 fake ESMTP")
		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					got <- data.String()
					reply("250 queued")
					continue
				}
				data.WriteString(line)
				continue
			}
			switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 fake")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				reply("250 ok")
			case cmd == "DATA":
				inData = true
				reply("354 go ahead")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 not implemented")
			}
		}
	}()
	return lis.Addr().String(), got
}

func TestSMTPMailer_Send(t *testing.T) {
	addr, got := fakeSMTP(t)
	m, err := NewSMTPMailer(SMTPConfig{Addr: addr, From: "Storefront <no-reply@example.com>"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = m.Send(ctx, domain.Email{
		To:      "ana@example.com",
		ReplyTo: "luis@example.com",
		Subject: "Hola",
		Body:    "line one\nline two",
	})
	require.NoError(t, err)

	select {
	case msg := <-got:
		assert.Contains(t, msg, "To: <ana@example.com>\r\n")
		assert.Contains(t, msg, "Reply-To: <luis@example.com>\r\n")
		assert.Contains(t, msg, "Subject: Hola\r\n")
		assert.Contains(t, msg, "line one\r\nline two")
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestSMTPMailer_RejectsBadRecipient(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Addr: "127.0.0.1:1", From: "no-reply@example.com"})
	require.NoError(t, err)
	assert.Error(t, m.Send(context.Background(), domain.Email{To: "not an address"}))
}

func TestNewSMTPMailer_InvalidConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{Addr: "no-port", From: "no-reply@example.com"})
	assert.Error(t, err)
	_, err = NewSMTPMailer(SMTPConfig{Addr: "localhost:25", From: "broken"})
	assert.Error(t, err)
}

func TestBuildMessage_HeadersHaveNoLineBreaks(t *testing.T) {
	from := &mail.Address{Address: "no-reply@example.com"}
	to := &mail.Address{Address: "ana@example.com"}

	msg, err := buildMessage(from, to, domain.Email{
		Subject: "hi\r\nBcc: victim@example.com",
		Body:    "body",
	}, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	head, _, _ := bytes.Cut(msg, []byte("\r\n\r\n"))
	assert.NotContains(t, string(head), "\r\nBcc:")
	assert.Contains(t, string(head), "Date: Wed, 01 May 2024 12:00:00 +0000")
	assert.Contains(t, string(head), "Subject: hi  Bcc: victim@example.com")
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	require.NoError(t, NewLogMailer(log).Send(context.Background(), domain.Email{To: "ana@example.com", Subject: "Hola"}))
	assert.Contains(t, buf.String(), "ana@example.com")
}
