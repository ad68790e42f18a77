package consumerWorker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tryst/internal/mailer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chanSource feeds queued bodies to the handler until ctx is done.
type chanSource struct {
	bodies  chan []byte
	mu      sync.Mutex
	results []error
}

func (s *chanSource) Consume(ctx context.Context, handler func([]byte) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-s.bodies:
			err := handler(b)
			s.mu.Lock()
			s.results = append(s.results, err)
			s.mu.Unlock()
		}
	}
}

func (s *chanSource) handled() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.results...)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.SendRequest
	err  error
}

func (r *recordingSender) Send(_ context.Context, req mailer.SendRequest) (mailer.SendResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return mailer.SendResult{}, r.err
	}
	r.sent = append(r.sent, req)
	return mailer.SendResult{MessageID: "m-1"}, nil
}

func TestReaderRelaysQueuedMail(t *testing.T) {
	log := zerolog.Nop()
	src := &chanSource{bodies: make(chan []byte)}
	sender := &recordingSender{}

	r := NewReader(src, sender, &log)
	r.Start(context.Background())

	src.bodies <- []byte(`{"to":["a@x.com"],"subject":"Hi","html":"<p>x</p>"}`)
	src.bodies <- []byte(`not json`)

	require.Eventually(t, func() bool { return len(src.handled()) == 2 }, time.Second, 5*time.Millisecond)
	r.Stop()

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"a@x.com"}, sender.sent[0].To)
	for _, err := range src.handled() {
		assert.NoError(t, err, "malformed messages are dropped, not retried")
	}
}

func TestReaderReportsTransportFailure(t *testing.T) {
	log := zerolog.Nop()
	src := &chanSource{bodies: make(chan []byte)}
	sender := &recordingSender{err: errors.New("smtp down")}

	r := NewReader(src, sender, &log)
	r.Start(context.Background())

	src.bodies <- []byte(`{"to":["a@x.com"],"subject":"Hi","html":"x"}`)
	require.Eventually(t, func() bool { return len(src.handled()) == 1 }, time.Second, 5*time.Millisecond)
	r.Stop()

	assert.Error(t, src.handled()[0])
}

func TestStopWithoutStart(t *testing.T) {
	log := zerolog.Nop()
	r := NewReader(&chanSource{}, &recordingSender{}, &log)
	r.Stop()
}
