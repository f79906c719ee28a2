package transport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes a single joint value as a message payload.
type Codec interface {
	Name() string
	Encode(v float64) ([]byte, error)
	Decode(b []byte) (float64, error)
}

// NewCodec returns the codec registered under name ("text" or "msgpack").
func NewCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return TextCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown payload format %q", name)
	}
}

// TextCodec writes the value as a shortest round-trip decimal string.
type TextCodec struct{}

func (TextCodec) Name() string { return "text" }

func (TextCodec) Encode(v float64) ([]byte, error) {
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (TextCodec) Decode(b []byte) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
}

// MsgpackCodec writes the value as a MessagePack float64.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Encode(v float64) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgpackCodec) Decode(b []byte) (float64, error) {
	var v float64
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return 0, fmt.Errorf("decode msgpack payload: %w", err)
	}
	return v, nil
}
