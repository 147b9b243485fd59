package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"slotbook/internal/config"
	"slotbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func sample(status string) models.Notification {
	return models.Notification{
		To:       "alice@example.com",
		Name:     "Alice <admin>",
		SlotDate: "2025-01-10",
		SlotTime: "10:00",
		OrderID:  "ORD-1",
		Status:   status,
	}
}

func TestRender(t *testing.T) {
	msg, err := render(sample(models.NotifyConfirmed))
	require.NoError(t, err)

	assert.Equal(t, "Booking Confirmed - 2025-01-10 at 10:00", msg.Subject)
	assert.Contains(t, msg.Text, "has been confirmed!")
	assert.Contains(t, msg.Text, "Booking ID: ORD-1")
	assert.Contains(t, msg.HTML, "#4CAF50")
	// names are escaped in the HTML part
	assert.Contains(t, msg.HTML, "Alice &lt;admin&gt;")

	msg, err = render(sample(models.NotifyCancelled))
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "has been cancelled!")
	assert.Contains(t, msg.HTML, "#f44336")
}

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSMTPNotifier(t *testing.T) {
	cfg := config.MailConfig{From: "noreply@example.com"}

	t.Run("Sends", func(t *testing.T) {
		sender := &fakeSender{}
		n := newSMTPNotifier(sender, cfg, nopLogger())

		require.NoError(t, n.Send(context.Background(), sample(models.NotifyConfirmed)))
		require.Len(t, sender.sent, 1)

		m := sender.sent[0]
		assert.Equal(t, []string{"Booking Confirmed - 2025-01-10 at 10:00"}, m.GetHeader("Subject"))
		assert.Contains(t, m.GetHeader("From")[0], "Booking System")
		assert.Contains(t, m.GetHeader("To")[0], "alice@example.com")

		var buf bytes.Buffer
		_, err := m.WriteTo(&buf)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "text/html")
	})

	t.Run("SenderError", func(t *testing.T) {
		n := newSMTPNotifier(&fakeSender{err: errors.New("connection refused")}, cfg, nopLogger())
		err := n.Send(context.Background(), sample(models.NotifyCancelled))
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("NoRecipient", func(t *testing.T) {
		n := newSMTPNotifier(&fakeSender{}, cfg, nopLogger())
		assert.Error(t, n.Send(context.Background(), models.Notification{OrderID: "ORD-2"}))
	})

	t.Run("CancelledContext", func(t *testing.T) {
		sender := &fakeSender{}
		n := newSMTPNotifier(sender, cfg, nopLogger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, n.Send(ctx, sample(models.NotifyConfirmed)), context.Canceled)
		assert.Empty(t, sender.sent)
	})
}

func TestNewPicksNotifier(t *testing.T) {
	assert.IsType(t, &LogNotifier{}, New(config.MailConfig{}, nopLogger()))
	assert.IsType(t, &SMTPNotifier{}, New(config.MailConfig{Enabled: true, Host: "smtp", Port: 25}, nopLogger()))
	assert.NoError(t, NewLogNotifier(nopLogger()).Send(context.Background(), sample(models.NotifyConfirmed)))
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, n models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type panicNotifier struct{}

func (panicNotifier) Send(context.Context, models.Notification) error {
	panic("smtp exploded")
}

func TestDispatcher_IsolatesFailures(t *testing.T) {
	ctx := context.Background()
	notifier := new(mockNotifier)

	deliveries := []Delivery{
		{BookingID: 1, Notification: models.Notification{To: "a@example.com", Status: models.NotifyCancelled}},
		{BookingID: 2, Notification: models.Notification{To: "b@example.com", Status: models.NotifyCancelled}},
		{BookingID: 3, Notification: models.Notification{To: "c@example.com", Status: models.NotifyCancelled}},
	}
	notifier.On("Send", ctx, deliveries[0].Notification).Return(errors.New("mailbox full")).Once()
	notifier.On("Send", ctx, deliveries[1].Notification).Return(nil).Once()
	notifier.On("Send", ctx, deliveries[2].Notification).Return(nil).Once()

	results := NewDispatcher(notifier, nopLogger()).Dispatch(ctx, deliveries)

	require.Len(t, results, 3)
	assert.False(t, results[0].Delivered())
	assert.Equal(t, "mailbox full", results[0].Error)
	assert.True(t, results[1].Delivered())
	assert.True(t, results[2].Delivered())
	notifier.AssertExpectations(t)
}

func TestDispatcher_RecoversPanicAndSkipsEmpty(t *testing.T) {
	d := NewDispatcher(panicNotifier{}, nopLogger())

	results := d.Dispatch(context.Background(), []Delivery{
		{BookingID: 1, Notification: models.Notification{To: "a@example.com"}},
		{BookingID: 2, Notification: models.Notification{}},
	})

	require.Len(t, results, 2)
	assert.Contains(t, results[0].Error, "smtp exploded")
	assert.Equal(t, "skipped", results[1].Outcome)

	none := NewDispatcher(nil, nopLogger()).Dispatch(context.Background(), []Delivery{
		{BookingID: 1, Notification: models.Notification{To: "a@example.com"}},
	})
	assert.Equal(t, "failed", none[0].Outcome)

	assert.Empty(t, d.Dispatch(context.Background(), nil))
}
