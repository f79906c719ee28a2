package playback

import (
	"errors"
	"fmt"
	"strings"
)

// ChannelID identifies a joint command channel (e.g. "left_arm_joint1").
type ChannelID string

// defaultChannelIDs is the built-in recognized channel set: both arms and the torso.
var defaultChannelIDs = []ChannelID{
	"left_arm_joint1", "left_arm_joint2", "left_arm_joint3", "left_arm_joint4",
	"left_arm_joint5", "left_arm_joint6", "left_arm_joint7",
	"right_arm_joint1", "right_arm_joint2", "right_arm_joint3", "right_arm_joint4",
	"right_arm_joint5", "right_arm_joint6", "right_arm_joint7",
	"torso_joint1", "torso_joint2",
}

// ErrDuplicateChannel is returned when a channel set lists the same id twice.
var ErrDuplicateChannel = errors.New("duplicate channel id")

// ChannelSet is the ordered, immutable set of channel ids a recording may drive.
type ChannelSet struct {
	ids   []ChannelID
	index map[ChannelID]struct{}
}

// NewChannelSet builds a ChannelSet preserving the given order.
// Empty ids and duplicates are rejected.
func NewChannelSet(ids ...string) (ChannelSet, error) {
	set := ChannelSet{
		ids:   make([]ChannelID, 0, len(ids)),
		index: make(map[ChannelID]struct{}, len(ids)),
	}
	for _, raw := range ids {
		id := ChannelID(strings.TrimSpace(raw))
		if id == "" {
			return ChannelSet{}, errors.New("empty channel id")
		}
		if _, dup := set.index[id]; dup {
			return ChannelSet{}, fmt.Errorf("%w: %s", ErrDuplicateChannel, id)
		}
		set.index[id] = struct{}{}
		set.ids = append(set.ids, id)
	}
	return set, nil
}

// DefaultChannels returns the built-in set of sixteen arm and torso joints.
func DefaultChannels() ChannelSet {
	ids := make([]string, len(defaultChannelIDs))
	for i, id := range defaultChannelIDs {
		ids[i] = string(id)
	}
	set, _ := NewChannelSet(ids...)
	return set
}

// Contains reports whether name is a recognized channel. No trimming is applied.
func (s ChannelSet) Contains(name string) bool {
	_, ok := s.index[ChannelID(name)]
	return ok
}

// IDs returns a copy of the channel ids in configured order.
func (s ChannelSet) IDs() []ChannelID {
	out := make([]ChannelID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of recognized channels.
func (s ChannelSet) Len() int {
	return len(s.ids)
}

// Sample is a single channel value inside a Frame.
type Sample struct {
	Channel ChannelID
	Value   float64
}

// Frame is one instant of recorded motion. Samples are kept in column order
// and a channel appears at most once. Frames are not modified after load.
type Frame struct {
	samples []Sample
}

// NewFrame builds a Frame from samples; a later sample for the same channel
// replaces an earlier one.
func NewFrame(samples ...Sample) Frame {
	out := make([]Sample, 0, len(samples))
	pos := make(map[ChannelID]int, len(samples))
	for _, s := range samples {
		if i, ok := pos[s.Channel]; ok {
			out[i] = s
			continue
		}
		pos[s.Channel] = len(out)
		out = append(out, s)
	}
	return Frame{samples: out}
}

// Len returns the number of channels set in the frame.
func (f Frame) Len() int {
	return len(f.samples)
}

// Value returns the value recorded for ch, if any.
func (f Frame) Value(ch ChannelID) (float64, bool) {
	for _, s := range f.samples {
		if s.Channel == ch {
			return s.Value, true
		}
	}
	return 0, false
}

// Samples returns a copy of the frame's samples.
func (f Frame) Samples() []Sample {
	out := make([]Sample, len(f.samples))
	copy(out, f.samples)
	return out
}

// Equal reports whether both frames hold the same channels with the same values.
func (f Frame) Equal(other Frame) bool {
	if len(f.samples) != len(other.samples) {
		return false
	}
	for i := range f.samples {
		if f.samples[i] != other.samples[i] {
			return false
		}
	}
	return true
}

// Recording is the loaded table: raw header names and frames in row order.
// Warnings counts recognized cells dropped because they were not numeric.
type Recording struct {
	Source   string
	Headers  []string
	Frames   []Frame
	Warnings int
}

// Len returns the number of frames.
func (r *Recording) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Frames)
}
