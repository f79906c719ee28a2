// Package transport delivers joint command values to named outputs.
//
// A Publisher moves encoded payloads to topics; a Sink binds one topic,
// one codec and one publisher together and is what playback emits to.
// Publishing is fire-and-forget: failures are reported through an
// ErrorFunc and never returned to the emitter.
package transport

import (
	"log/slog"
)

// Publisher sends payloads to topics.
type Publisher interface {
	// Publish hands payload to the transport. It must not block for
	// longer than queueing the message. A returned error means the
	// message was not accepted; later delivery failures are reported
	// through the publisher's ErrorFunc.
	Publish(topic string, payload []byte) error

	// Close releases the underlying connection.
	Close() error
}

// ErrorFunc receives publish failures.
type ErrorFunc func(topic string, err error)

// LogErrors returns an ErrorFunc that logs each failure at warn level and
// calls count, if non-nil.
func LogErrors(log *slog.Logger, count func()) ErrorFunc {
	return func(topic string, err error) {
		log.Warn("publish failed", slog.String("topic", topic), slog.String("error", err.Error()))
		if count != nil {
			count()
		}
	}
}

// Topic builds the topic name of a channel: prefix + channel + suffix,
// e.g. "/model/r1_pro/joint/left_arm_joint1/cmd_pos".
func Topic(prefix, channel, suffix string) string {
	return prefix + channel + suffix
}

// Sink publishes the values of one channel to one topic.
type Sink struct {
	topic   string
	pub     Publisher
	codec   Codec
	onError ErrorFunc
}

// NewSink returns a Sink publishing to topic. onError may be nil.
func NewSink(pub Publisher, topic string, codec Codec, onError ErrorFunc) *Sink {
	if onError == nil {
		onError = func(string, error) {}
	}
	return &Sink{topic: topic, pub: pub, codec: codec, onError: onError}
}

// Name returns the sink's topic.
func (s *Sink) Name() string {
	return s.topic
}

// Emit encodes value and publishes it. Errors go to the sink's ErrorFunc.
func (s *Sink) Emit(value float64) {
	payload, err := s.codec.Encode(value)
	if err != nil {
		s.onError(s.topic, err)
		return
	}
	if err := s.pub.Publish(s.topic, payload); err != nil {
		s.onError(s.topic, err)
	}
}
