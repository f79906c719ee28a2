package playback

import (
	"log/slog"
	"strings"
)

// Sink is the output of a single channel. Emit is fire-and-forget: delivery
// failures are the transport's concern and are never returned to the caller.
type Sink interface {
	Name() string
	Emit(value float64)
}

// SinkOpener creates the sink for a recognized channel.
type SinkOpener func(ch ChannelID) Sink

// SinkTable maps channels to their sinks. It is built once and read-only afterwards.
type SinkTable struct {
	order []ChannelID
	sinks map[ChannelID]Sink
}

// BuildSinks creates one sink per recognized header. Headers are trimmed
// before matching; a header repeated after trimming yields a single sink,
// created at its last occurrence. Unrecognized headers are ignored.
func BuildSinks(headers []string, set ChannelSet, open SinkOpener, log *slog.Logger) SinkTable {
	last := make(map[ChannelID]int, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if set.Contains(name) {
			last[ChannelID(name)] = i
		}
	}

	t := SinkTable{
		order: make([]ChannelID, 0, len(last)),
		sinks: make(map[ChannelID]Sink, len(last)),
	}
	for i, h := range headers {
		ch := ChannelID(strings.TrimSpace(h))
		if idx, ok := last[ch]; !ok || idx != i {
			continue
		}
		sink := open(ch)
		t.order = append(t.order, ch)
		t.sinks[ch] = sink
		log.Info("joint sink created",
			slog.String("channel", string(ch)),
			slog.String("sink", sink.Name()))
	}

	if len(t.order) == 0 {
		log.Warn("no recognized channels in recording header", slog.Int("headers", len(headers)))
	}
	return t
}

// Lookup returns the sink for ch.
func (t SinkTable) Lookup(ch ChannelID) (Sink, bool) {
	s, ok := t.sinks[ch]
	return s, ok
}

// Len returns the number of sinks.
func (t SinkTable) Len() int {
	return len(t.order)
}

// Channels returns the channels with a sink, in creation order.
func (t SinkTable) Channels() []ChannelID {
	out := make([]ChannelID, len(t.order))
	copy(out, t.order)
	return out
}
