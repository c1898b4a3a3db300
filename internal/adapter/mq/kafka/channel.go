package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
	"merchant-acquirer/internal/metrics"
)

const (
	headerCorrelationID = "correlationId"
	headerReplyTo       = "replyTo"
)

// MessageWriter is the subset of *kafka.Writer the channel needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// MessageReader is the subset of *kafka.Reader the channel needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// pendingEntry is one in-flight request awaiting its registry reply.
type pendingEntry struct {
	onReply  ports.ReplyHandler
	onExpire ports.ExpiryHandler
	deadline time.Time
}

// Channel implements ports.AliasChannel over a Kafka command topic and a
// reply topic. Replies are matched to requests by the correlationId header;
// the correlation table lives in process memory behind a mutex.
type Channel struct {
	writer  MessageWriter
	reader  MessageReader
	replyTo string

	mu      sync.Mutex
	pending map[string]pendingEntry

	ttl           time.Duration
	sweepInterval time.Duration

	metrics *metrics.RegistrationMetrics
	log     zerolog.Logger
}

// ChannelConfig holds the channel's tunables.
type ChannelConfig struct {
	// ReplyTo names the topic the registry should answer on.
	ReplyTo string
	// PendingTTL bounds how long a request may wait for its reply.
	PendingTTL time.Duration
	// SweepInterval is how often expired entries are evicted.
	SweepInterval time.Duration
}

// NewChannel creates a new alias channel.
func NewChannel(writer MessageWriter, reader MessageReader, cfg ChannelConfig, m *metrics.RegistrationMetrics, log zerolog.Logger) *Channel {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 2 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 15 * time.Second
	}
	return &Channel{
		writer:        writer,
		reader:        reader,
		replyTo:       cfg.ReplyTo,
		pending:       make(map[string]pendingEntry),
		ttl:           cfg.PendingTTL,
		sweepInterval: cfg.SweepInterval,
		metrics:       m,
		log:           log.With().Str("component", "alias_channel").Logger(),
	}
}

// Publish sends {command, data} to the registry with a fresh correlation id.
// The reply handler is registered before the send so a fast reply cannot slip
// past the correlation table. On a transport rejection the registration is
// withdrawn and (uuid, false) is returned; onExpire will not fire.
func (c *Channel) Publish(ctx context.Context, command string, data any, onReply ports.ReplyHandler, onExpire ports.ExpiryHandler) (string, bool) {
	correlationID := uuid.NewString()

	payload, err := json.Marshal(data)
	if err != nil {
		c.log.Error().Err(err).Str("command", command).Msg("failed to marshal request payload")
		return correlationID, false
	}
	envelope, err := json.Marshal(domain.RegistryEnvelope{Command: command, Data: payload})
	if err != nil {
		c.log.Error().Err(err).Str("command", command).Msg("failed to marshal request envelope")
		return correlationID, false
	}

	c.mu.Lock()
	c.pending[correlationID] = pendingEntry{
		onReply:  onReply,
		onExpire: onExpire,
		deadline: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()

	msg := kafka.Message{
		Key:   []byte(correlationID),
		Value: envelope,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: headerCorrelationID, Value: []byte(correlationID)},
			{Key: headerReplyTo, Value: []byte(c.replyTo)},
		},
	}
	if err := c.writer.WriteMessages(ctx, msg); err != nil {
		c.mu.Lock()
		delete(c.pending, correlationID)
		c.mu.Unlock()
		c.log.Error().Err(err).Str("command", command).Str("correlation_id", correlationID).
			Msg("transport rejected request")
		return correlationID, false
	}

	c.log.Debug().Str("command", command).Str("correlation_id", correlationID).Msg("request published")
	return correlationID, true
}

// Run consumes the reply topic until the context is cancelled. Every fetched
// message is acknowledged whether or not it matches a pending request:
// unmatched replies are stale (their request already expired) and retrying
// them can never succeed.
func (c *Channel) Run(ctx context.Context) error {
	sweeper := time.NewTicker(c.sweepInterval)
	defer sweeper.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sweeper.C:
				c.sweep(ctx)
			}
		}
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("fetch reply: %w", err)
		}

		c.dispatch(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error().Err(err).Msg("failed to commit reply offset")
		}
	}
}

// dispatch routes one reply message to its registered handler and removes the
// correlation entry. The handler runs at most once per entry.
func (c *Channel) dispatch(ctx context.Context, msg kafka.Message) {
	correlationID := headerValue(msg, headerCorrelationID)
	if correlationID == "" {
		c.log.Warn().Msg("reply without correlationId header dropped")
		c.metrics.RecordAliasReply("unmatched")
		return
	}

	var envelope domain.RegistryEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		c.log.Error().Err(err).Str("correlation_id", correlationID).Msg("malformed reply envelope dropped")
		c.metrics.RecordAliasReply("unmatched")
		return
	}

	c.mu.Lock()
	entry, ok := c.pending[correlationID]
	if ok {
		delete(c.pending, correlationID)
	}
	c.mu.Unlock()

	if !ok {
		c.log.Warn().Str("correlation_id", correlationID).Str("command", envelope.Command).
			Msg("reply with no pending request dropped")
		c.metrics.RecordAliasReply("unmatched")
		return
	}

	if entry.onReply != nil {
		entry.onReply(ctx, correlationID, envelope.Command, envelope.Data)
	}
}

// sweep evicts entries whose deadline has passed and fires their expiry
// handlers outside the lock.
func (c *Channel) sweep(ctx context.Context) {
	c.sweepAt(ctx, time.Now())
}

func (c *Channel) sweepAt(ctx context.Context, now time.Time) {
	type expiredEntry struct {
		id    string
		entry pendingEntry
	}

	c.mu.Lock()
	var expired []expiredEntry
	for id, entry := range c.pending {
		if entry.deadline.Before(now) {
			delete(c.pending, id)
			expired = append(expired, expiredEntry{id: id, entry: entry})
			c.log.Warn().Str("correlation_id", id).Msg("pending request expired without a reply")
		}
	}
	c.mu.Unlock()

	for _, e := range expired {
		if e.entry.onExpire != nil {
			e.entry.onExpire(ctx, e.id)
		}
	}
}

// PendingCount reports the number of in-flight requests.
func (c *Channel) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
