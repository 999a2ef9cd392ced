package mailer

import (
	"context"
	"errors"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyMailer struct {
	mu       sync.Mutex
	failures int
	sent     []Message
}

func (f *flakyMailer) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("provider unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *flakyMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestOutboxDeliversInBackground(t *testing.T) {
	inner := NewLogMailer(nil)
	o := NewOutbox(inner, 1, 1, nil)
	o.Start(context.Background())
	defer o.Stop()

	msg := Message{To: mail.Address{Address: "siswa@example.com"}, Subject: "Reset", Text: "link"}
	require.NoError(t, o.Send(context.Background(), msg))

	assert.Eventually(t, func() bool { return len(inner.Sent()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "siswa@example.com", inner.Sent()[0].To.Address)
}

func TestOutboxRetriesProviderFailure(t *testing.T) {
	inner := &flakyMailer{failures: 1}
	o := NewOutbox(inner, 1, 3, nil)
	o.Start(context.Background())
	defer o.Stop()

	require.NoError(t, o.Send(context.Background(), Message{To: mail.Address{Address: "guru@example.com"}}))
	assert.Eventually(t, func() bool { return inner.count() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestOutboxSendBeforeStart(t *testing.T) {
	o := NewOutbox(NewLogMailer(nil), 1, 1, nil)
	assert.Error(t, o.Send(context.Background(), Message{}))
}
