package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empdir/internal/platform/config"
	"empdir/internal/platform/metrics"
)

type captureSender struct {
	mu       sync.Mutex
	messages []string
	started  chan struct{}
	release  chan struct{}
	err      error
}

func (s *captureSender) Send(_ context.Context, from, to, subject, body string) error {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, from+"|"+to+"|"+subject+"|"+body)
	return s.err
}

func (s *captureSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, "hr@example.com", 8, metrics.New())

	require.NoError(t, d.Notify(context.Background(), "boss@example.com", "subject", "body-1"))
	require.NoError(t, d.Notify(context.Background(), "boss@example.com", "subject", "body-2"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.Equal(t, []string{
		"hr@example.com|boss@example.com|subject|body-1",
		"hr@example.com|boss@example.com|subject|body-2",
	}, sender.sent())

	err := d.Notify(context.Background(), "boss@example.com", "subject", "late")
	require.ErrorIs(t, err, ErrDispatcherClosed)
	require.NoError(t, d.Close(ctx), "closing twice is allowed")
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	sender := &captureSender{started: make(chan struct{}, 4), release: make(chan struct{})}
	d := NewDispatcher(sender, "hr@example.com", 1, nil)

	require.NoError(t, d.Notify(context.Background(), "a@example.com", "s", "in-flight"))
	<-sender.started
	require.NoError(t, d.Notify(context.Background(), "a@example.com", "s", "queued"))

	err := d.Notify(context.Background(), "a@example.com", "s", "dropped")
	require.ErrorIs(t, err, ErrQueueFull)

	close(sender.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Len(t, sender.sent(), 2)
}

func TestDispatcherKeepsWorkingAfterSendFailure(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, "hr@example.com", 4, nil)

	require.NoError(t, d.Notify(context.Background(), "a@example.com", "s", "one"))
	require.NoError(t, d.Notify(context.Background(), "b@example.com", "s", "two"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Len(t, sender.sent(), 2)
}

func TestDispatcherNotifyIgnoresCallerCancellation(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, "hr@example.com", 4, nil)

	reqCtx, cancelReq := context.WithCancel(context.Background())
	require.NoError(t, d.Notify(reqCtx, "a@example.com", "s", "body"))
	cancelReq()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Len(t, sender.sent(), 1)
}

func TestNewUsesNoopSenderWhenDisabled(t *testing.T) {
	d := New(config.Config{EmailEnabled: false, MailQueueSize: 2}, nil)
	_, ok := d.sender.(noopSender)
	assert.True(t, ok)
	require.NoError(t, d.Close(context.Background()))

	d = New(config.Config{EmailEnabled: true, SMTPHost: "smtp.example.com", MailQueueSize: 2}, nil)
	_, ok = d.sender.(*smtpSender)
	assert.True(t, ok)
	require.NoError(t, d.Close(context.Background()))
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("hr@example.com", "boss@example.com", "New Employee Assignment Notification", "hello"))
	assert.True(t, strings.HasPrefix(msg, "From: hr@example.com\r\nTo: boss@example.com\r\nSubject: New Employee Assignment Notification\r\n"))
	assert.Contains(t, msg, "Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nhello"))
}
