package transport

import (
	"errors"
	"log/slog"
	"sync"
	"unicode/utf8"
)

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("publisher closed")

// Message is a published payload.
type Message struct {
	Topic   string
	Payload []byte
}

// MemoryPublisher keeps every published message in memory. It is safe for
// concurrent use.
type MemoryPublisher struct {
	mu       sync.RWMutex
	messages []Message
	byTopic  map[string]int
	closed   bool
}

// NewMemoryPublisher returns an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{byTopic: make(map[string]int)}
}

// Publish implements Publisher.Publish.
func (p *MemoryPublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	b := make([]byte, len(payload))
	copy(b, payload)
	p.messages = append(p.messages, Message{Topic: topic, Payload: b})
	p.byTopic[topic]++
	return nil
}

// Messages returns a copy of all messages in publish order.
func (p *MemoryPublisher) Messages() []Message {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Count returns the number of messages published on topic.
func (p *MemoryPublisher) Count(topic string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byTopic[topic]
}

// Reset drops all recorded messages.
func (p *MemoryPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
	p.byTopic = make(map[string]int)
}

// Close implements Publisher.Close.
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// LogPublisher writes each message to the log at debug level instead of
// sending it anywhere. It backs the dry-run transport.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher returns a dry-run publisher.
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish implements Publisher.Publish.
func (p *LogPublisher) Publish(topic string, payload []byte) error {
	attrs := []any{slog.String("topic", topic), slog.Int("bytes", len(payload))}
	if utf8.Valid(payload) {
		attrs = append(attrs, slog.String("payload", string(payload)))
	}
	p.log.Debug("publish", attrs...)
	return nil
}

// Close implements Publisher.Close.
func (p *LogPublisher) Close() error {
	return nil
}
