package mailer

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SMTPSender delivers through an authenticated SMTP relay such as Gmail.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	log      *zerolog.Logger

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, user, password, from string, log *zerolog.Logger) *SMTPSender {
	if from == "" {
		from = user
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		log:      log,
		send:     smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	from := req.From
	if from == "" {
		from = s.from
	}

	msg := buildMessage(from, req)
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	if err := s.send(addr, auth, from, req.To, msg); err != nil {
		s.log.Warn().Err(err).Strs("to", req.To).Msg("smtp send failed")
		return SendResult{}, fmt.Errorf("send email: %w", err)
	}

	s.log.Info().Strs("to", req.To).Str("subject", req.Subject).Msg("email sent")
	return SendResult{
		MessageID: fmt.Sprintf("smtp-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}

func buildMessage(from string, req SendRequest) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(req.To, ", "))
	if req.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", req.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", req.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(req.HTML)
	return []byte(b.String())
}
