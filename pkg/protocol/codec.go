package protocol

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// Common codec errors.
var (
	ErrInvalidMessage = errors.New("invalid message format")
	ErrUnknownCodec   = errors.New("unknown codec")
)

// Codec handles message encoding/decoding.
type Codec interface {
	Encode(msg *Message) ([]byte, error)
	Decode(data []byte) (*Message, error)

	// Name is also the websocket subprotocol the codec is negotiated under.
	Name() string

	// Binary reports whether frames are sent as binary websocket messages.
	Binary() bool
}

// JSONCodec encodes messages as JSON objects.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Encode(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *JSONCodec) Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return &msg, nil
}

func (c *JSONCodec) Name() string { return "live.json" }
func (c *JSONCodec) Binary() bool { return false }

// MsgPackCodec encodes messages as MessagePack maps in binary frames.
type MsgPackCodec struct{}

// NewMsgPackCodec creates a new MsgPack codec.
func NewMsgPackCodec() *MsgPackCodec {
	return &MsgPackCodec{}
}

func (c *MsgPackCodec) Encode(msg *Message) ([]byte, error) {
	return msgpack.Marshal(msg)
}

func (c *MsgPackCodec) Decode(data []byte) (*Message, error) {
	var msg Message
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return &msg, nil
}

func (c *MsgPackCodec) Name() string { return "live.msgpack" }
func (c *MsgPackCodec) Binary() bool { return true }

// PhoenixCodec implements the Phoenix channel array format:
// [join_ref, ref, topic, event, payload]. The embedded browser client speaks
// it.
type PhoenixCodec struct{}

// NewPhoenixCodec creates a new Phoenix-compatible codec.
func NewPhoenixCodec() *PhoenixCodec {
	return &PhoenixCodec{}
}

func (c *PhoenixCodec) Encode(msg *Message) ([]byte, error) {
	tuple := []any{
		nullable(msg.JoinRef),
		nullable(msg.Ref),
		msg.Topic,
		msg.Event,
		msg.Payload,
	}
	return json.Marshal(tuple)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (c *PhoenixCodec) Decode(data []byte) (*Message, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if len(tuple) != 5 {
		return nil, ErrInvalidMessage
	}

	msg := &Message{}

	var joinRef, ref *string
	if err := json.Unmarshal(tuple[0], &joinRef); err == nil && joinRef != nil {
		msg.JoinRef = *joinRef
	}
	if err := json.Unmarshal(tuple[1], &ref); err == nil && ref != nil {
		msg.Ref = *ref
	}
	if err := json.Unmarshal(tuple[2], &msg.Topic); err != nil {
		return nil, fmt.Errorf("%w: topic: %v", ErrInvalidMessage, err)
	}
	if err := json.Unmarshal(tuple[3], &msg.Event); err != nil {
		return nil, fmt.Errorf("%w: event: %v", ErrInvalidMessage, err)
	}
	if err := json.Unmarshal(tuple[4], &msg.Payload); err != nil || msg.Payload == nil {
		msg.Payload = make(map[string]any)
	}

	return msg, nil
}

func (c *PhoenixCodec) Name() string { return "live.phoenix" }
func (c *PhoenixCodec) Binary() bool { return false }

// CodecRegistry holds the codecs a server accepts.
type CodecRegistry struct {
	codecs   map[string]Codec
	fallback Codec
	mu       sync.RWMutex
}

// NewCodecRegistry creates a registry with every built-in codec. Phoenix is
// the default, used when the client requests no subprotocol.
func NewCodecRegistry() *CodecRegistry {
	r := &CodecRegistry{codecs: make(map[string]Codec)}
	r.Register(NewJSONCodec())
	r.Register(NewMsgPackCodec())
	r.Register(NewPhoenixCodec())
	r.fallback = r.codecs["live.phoenix"]
	return r
}

// Register adds a codec to the registry.
func (r *CodecRegistry) Register(codec Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[codec.Name()] = codec
}

// Get retrieves a codec by name.
func (r *CodecRegistry) Get(name string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[name]
	return c, ok
}

// Default returns the codec used without negotiation.
func (r *CodecRegistry) Default() Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// SetDefault sets the default codec.
func (r *CodecRegistry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.codecs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	r.fallback = c
	return nil
}

// Names returns the registered codec names, sorted.
func (r *CodecRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Negotiate picks the codec for the subprotocol the server accepted, or the
// default when none was.
func (r *CodecRegistry) Negotiate(subprotocol string) Codec {
	if c, ok := r.Get(subprotocol); ok {
		return c
	}
	return r.Default()
}
