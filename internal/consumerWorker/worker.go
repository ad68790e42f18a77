package consumerWorker

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"tryst/internal/mailer"
)

// Source is the queue side of the mail relay.
type Source interface {
	Consume(ctx context.Context, handler func([]byte) error) error
}

// Reader drains the mail relay queue and delivers each message with the
// configured transport.
type Reader struct {
	src    Source
	sender mailer.Sender
	log    *zerolog.Logger
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(src Source, sender mailer.Sender, log *zerolog.Logger) *Reader {
	return &Reader{
		src:    src,
		sender: sender,
		log:    log,
		done:   make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.log.Info().Msg("mail relay reader started")

	go func() {
		defer close(r.done)

		if err := r.src.Consume(cctx, func(body []byte) error {
			return r.handle(cctx, body)
		}); err != nil && !errors.Is(err, context.Canceled) {
			r.log.Error().Err(err).Msg("mail relay consumer stopped")
			return
		}
		r.log.Info().Msg("mail relay reader stopped by context")
	}()
}

func (r *Reader) handle(ctx context.Context, body []byte) error {
	req, err := mailer.DecodeQueued(body)
	if err != nil {
		r.log.Error().Err(err).Msgf("dropping malformed relay message: %s", string(body))
		return nil
	}

	res, err := r.sender.Send(ctx, req)
	if err != nil {
		r.log.Warn().Err(err).Strs("to", req.To).Msg("relay delivery failed")
		return err
	}

	r.log.Info().
		Strs("to", req.To).
		Str("message_id", res.MessageID).
		Msg("relayed email sent")
	return nil
}

// Stop cancels consumption and waits for the reader goroutine to exit.
func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
