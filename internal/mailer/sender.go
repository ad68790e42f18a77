package mailer

import (
	"context"
	"errors"
	"time"
)

// ErrDelivery marks a confirmation mail that could not be handed to the
// transport. The record it confirms is already persisted.
var ErrDelivery = errors.New("email delivery failed")

type SendRequest struct {
	To      []string `json:"to"`
	From    string   `json:"from,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
