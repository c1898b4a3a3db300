package integration

import (
	"context"
	"encoding/json"
	"sync"

	"merchant-acquirer/internal/core/domain"

	"github.com/segmentio/kafka-go"
)

// fakeRegistry stands in for the external alias registry. It implements both
// sides of the Kafka transport: published commands are captured for
// inspection, and test-built replies are fed to the channel's reader loop.
type fakeRegistry struct {
	mu        sync.Mutex
	published []kafka.Message
	replies   chan kafka.Message
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{replies: make(chan kafka.Message, 16)}
}

func (f *fakeRegistry) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, msgs...)
	return nil
}

func (f *fakeRegistry) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-f.replies:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeRegistry) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return nil
}

// publishedCount returns how many commands the registry has received.
func (f *fakeRegistry) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

// lastPublished returns the most recent command, decoded.
func (f *fakeRegistry) lastPublished() (correlationID string, envelope domain.RegistryEnvelope, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.published) == 0 {
		return "", domain.RegistryEnvelope{}, false
	}
	msg := f.published[len(f.published)-1]
	for _, h := range msg.Headers {
		if h.Key == "correlationId" {
			correlationID = string(h.Value)
		}
	}
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return correlationID, domain.RegistryEnvelope{}, false
	}
	return correlationID, envelope, true
}

// reply feeds a registry reply back to the channel, matched by correlation id.
func (f *fakeRegistry) reply(correlationID, command string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	body, err := json.Marshal(domain.RegistryEnvelope{Command: command, Data: raw})
	if err != nil {
		return err
	}
	f.replies <- kafka.Message{
		Value:   body,
		Headers: []kafka.Header{{Key: "correlationId", Value: []byte(correlationID)}},
	}
	return nil
}
