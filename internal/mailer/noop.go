package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// NoopSender logs sends but does not deliver. Used in development.
type NoopSender struct {
	log *zerolog.Logger
}

func NewNoopSender(log *zerolog.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	s.log.Info().Strs("to", req.To).Str("subject", req.Subject).Msg("noop email send")
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
