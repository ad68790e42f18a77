package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// QueueSender hands mail to the relay queue instead of a transport. The
// relay worker performs the actual delivery.
type QueueSender struct {
	pub  Publisher
	from string
	log  *zerolog.Logger
}

func NewQueueSender(pub Publisher, from string, log *zerolog.Logger) *QueueSender {
	return &QueueSender{pub: pub, from: from, log: log}
}

func (s *QueueSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if req.From == "" {
		req.From = s.from
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("marshal mail: %w", err)
	}
	if err := s.pub.Publish(ctx, payload); err != nil {
		return SendResult{}, fmt.Errorf("enqueue mail: %w", err)
	}

	s.log.Debug().Strs("to", req.To).Msg("mail queued for relay")
	return SendResult{
		MessageID: fmt.Sprintf("queued-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}

// DecodeQueued parses a relay message produced by QueueSender.
func DecodeQueued(body []byte) (SendRequest, error) {
	var req SendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return SendRequest{}, fmt.Errorf("unmarshal mail: %w", err)
	}
	if len(req.To) == 0 {
		return SendRequest{}, fmt.Errorf("queued mail has no recipient")
	}
	return req, nil
}
