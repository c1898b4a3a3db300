package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/metrics"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) written() []kafka.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafka.Message(nil), f.messages...)
}

type fakeReader struct {
	replies chan kafka.Message

	mu        sync.Mutex
	committed []kafka.Message
}

func newFakeReader() *fakeReader {
	return &fakeReader{replies: make(chan kafka.Message, 16)}
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg := <-f.replies:
		return msg, nil
	}
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) committedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.committed)
}

func newTestChannel(writer *fakeWriter, reader *fakeReader, ttl time.Duration) *Channel {
	return NewChannel(writer, reader, ChannelConfig{
		ReplyTo:       "alias-replies",
		PendingTTL:    ttl,
		SweepInterval: time.Hour, // sweeps are driven manually in tests
	}, metrics.New(prometheus.NewRegistry()), zerolog.Nop())
}

func replyMessage(t *testing.T, correlationID, command string, data any) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	envelope, err := json.Marshal(domain.RegistryEnvelope{Command: command, Data: payload})
	require.NoError(t, err)
	return kafka.Message{
		Value:   envelope,
		Headers: []kafka.Header{{Key: headerCorrelationID, Value: []byte(correlationID)}},
	}
}

func TestChannel_Publish_WritesEnvelopeWithHeaders(t *testing.T) {
	writer := &fakeWriter{}
	ch := newTestChannel(writer, newFakeReader(), time.Minute)

	correlationID, accepted := ch.Publish(context.Background(), domain.CommandGenerateAlias,
		map[string]string{"trading_name": "Corner Shop"}, func(context.Context, string, string, []byte) {}, nil)
	require.True(t, accepted)
	require.NotEmpty(t, correlationID)
	assert.Equal(t, 1, ch.PendingCount())

	written := writer.written()
	require.Len(t, written, 1)
	assert.Equal(t, correlationID, headerValue(written[0], headerCorrelationID))
	assert.Equal(t, "alias-replies", headerValue(written[0], headerReplyTo))

	var envelope domain.RegistryEnvelope
	require.NoError(t, json.Unmarshal(written[0].Value, &envelope))
	assert.Equal(t, domain.CommandGenerateAlias, envelope.Command)
	assert.JSONEq(t, `{"trading_name":"Corner Shop"}`, string(envelope.Data))
}

func TestChannel_Publish_FreshCorrelationIDPerRequest(t *testing.T) {
	writer := &fakeWriter{}
	ch := newTestChannel(writer, newFakeReader(), time.Minute)

	id1, _ := ch.Publish(context.Background(), domain.CommandGenerateAlias, struct{}{}, nil, nil)
	id2, _ := ch.Publish(context.Background(), domain.CommandGenerateAlias, struct{}{}, nil, nil)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, ch.PendingCount())
}

func TestChannel_Publish_TransportRejectionWithdrawsRegistration(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unreachable")}
	ch := newTestChannel(writer, newFakeReader(), time.Minute)

	expired := false
	_, accepted := ch.Publish(context.Background(), domain.CommandGenerateAlias, struct{}{},
		func(context.Context, string, string, []byte) {}, func(context.Context, string) { expired = true })
	assert.False(t, accepted)
	assert.Equal(t, 0, ch.PendingCount(), "rejected publish must not leave a pending entry")

	// The withdrawn entry must never expire.
	ch.sweepAt(context.Background(), time.Now().Add(time.Hour))
	assert.False(t, expired)
}

func TestChannel_Run_DispatchesReplyToHandler(t *testing.T) {
	writer := &fakeWriter{}
	reader := newFakeReader()
	ch := newTestChannel(writer, reader, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx) //nolint:errcheck

	got := make(chan []byte, 1)
	correlationID, accepted := ch.Publish(ctx, domain.CommandGenerateAlias, struct{}{},
		func(_ context.Context, id, command string, data []byte) {
			require.NotEmpty(t, id)
			require.Equal(t, domain.CommandGenerateAlias, command)
			got <- data
		}, nil)
	require.True(t, accepted)

	reader.replies <- replyMessage(t, correlationID, domain.CommandGenerateAlias,
		domain.AliasReplyRecord{MerchantID: 10, CheckoutCounterID: 100, AliasValue: "0037010"})

	select {
	case data := <-got:
		var record domain.AliasReplyRecord
		require.NoError(t, json.Unmarshal(data, &record))
		assert.Equal(t, "0037010", record.AliasValue)
	case <-time.After(2 * time.Second):
		t.Fatal("reply handler was never invoked")
	}
	assert.Equal(t, 0, ch.PendingCount(), "dispatch must remove the correlation entry")
}

func TestChannel_Run_NilReplyHandlerTolerated(t *testing.T) {
	writer := &fakeWriter{}
	reader := newFakeReader()
	ch := newTestChannel(writer, reader, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx) //nolint:errcheck

	correlationID, accepted := ch.Publish(ctx, domain.CommandGenerateAlias, struct{}{}, nil, nil)
	require.True(t, accepted)

	reader.replies <- replyMessage(t, correlationID, domain.CommandGenerateAlias, struct{}{})

	// The reply loop must survive the nil handler and keep consuming.
	require.Eventually(t, func() bool { return reader.committedCount() == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, ch.PendingCount())

	reader.replies <- replyMessage(t, "another-correlation", domain.CommandGenerateAlias, struct{}{})
	require.Eventually(t, func() bool { return reader.committedCount() == 2 },
		2*time.Second, 10*time.Millisecond)
}

func TestChannel_Run_HandlerFiresAtMostOnce(t *testing.T) {
	writer := &fakeWriter{}
	reader := newFakeReader()
	ch := newTestChannel(writer, reader, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx) //nolint:errcheck

	calls := make(chan struct{}, 2)
	correlationID, _ := ch.Publish(ctx, domain.CommandGenerateAlias, struct{}{},
		func(context.Context, string, string, []byte) { calls <- struct{}{} }, nil)

	// Redelivered reply: second copy finds no pending entry.
	reader.replies <- replyMessage(t, correlationID, domain.CommandGenerateAlias, struct{}{})
	reader.replies <- replyMessage(t, correlationID, domain.CommandGenerateAlias, struct{}{})

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("reply handler was never invoked")
	}

	require.Eventually(t, func() bool { return reader.committedCount() == 2 },
		2*time.Second, 10*time.Millisecond, "both copies must be acknowledged")
	assert.Empty(t, calls, "handler must not run twice")
}

func TestChannel_Run_UnmatchedReplyAcknowledged(t *testing.T) {
	writer := &fakeWriter{}
	reader := newFakeReader()
	ch := newTestChannel(writer, reader, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx) //nolint:errcheck

	reader.replies <- replyMessage(t, "unknown-correlation", domain.CommandGenerateAlias, struct{}{})

	require.Eventually(t, func() bool { return reader.committedCount() == 1 },
		2*time.Second, 10*time.Millisecond, "stale replies are dropped but still acknowledged")
}

func TestChannel_Run_ReplyWithoutHeaderAcknowledged(t *testing.T) {
	writer := &fakeWriter{}
	reader := newFakeReader()
	ch := newTestChannel(writer, reader, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx) //nolint:errcheck

	reader.replies <- kafka.Message{Value: []byte(`{"command":"generateAlias","data":{}}`)}

	require.Eventually(t, func() bool { return reader.committedCount() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestChannel_Sweep_ExpiresOverdueEntries(t *testing.T) {
	writer := &fakeWriter{}
	ch := newTestChannel(writer, newFakeReader(), 10*time.Millisecond)

	expired := make(chan struct{}, 1)
	_, accepted := ch.Publish(context.Background(), domain.CommandBulkGenerateAlias, struct{}{},
		func(context.Context, string, string, []byte) { t.Fatal("reply handler must not fire on expiry") },
		func(_ context.Context, id string) {
			assert.NotEmpty(t, id)
			expired <- struct{}{}
		})
	require.True(t, accepted)

	ch.sweepAt(context.Background(), time.Now().Add(time.Second))

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("expiry handler was never invoked")
	}
	assert.Equal(t, 0, ch.PendingCount())
}

func TestChannel_Sweep_LeavesLiveEntriesAlone(t *testing.T) {
	writer := &fakeWriter{}
	ch := newTestChannel(writer, newFakeReader(), time.Minute)

	_, accepted := ch.Publish(context.Background(), domain.CommandGenerateAlias, struct{}{}, nil,
		func(context.Context, string) { t.Fatal("live entry must not expire") })
	require.True(t, accepted)

	ch.sweepAt(context.Background(), time.Now())
	assert.Equal(t, 1, ch.PendingCount())
}

func TestChannel_ReplyAfterExpiryIsUnmatched(t *testing.T) {
	writer := &fakeWriter{}
	reader := newFakeReader()
	ch := newTestChannel(writer, reader, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx) //nolint:errcheck

	correlationID, _ := ch.Publish(ctx, domain.CommandGenerateAlias, struct{}{},
		func(context.Context, string, string, []byte) { t.Fatal("expired entry must not receive its reply") },
		nil)

	ch.sweepAt(ctx, time.Now().Add(time.Second))
	require.Equal(t, 0, ch.PendingCount())

	reader.replies <- replyMessage(t, correlationID, domain.CommandGenerateAlias, struct{}{})

	require.Eventually(t, func() bool { return reader.committedCount() == 1 },
		2*time.Second, 10*time.Millisecond)
}
