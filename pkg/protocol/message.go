// Package protocol defines the messages exchanged with the live client and
// the codecs that put them on the wire.
package protocol

// MessageType classifies a message by its event name.
type MessageType uint8

const (
	MsgEvent MessageType = iota
	MsgJoin
	MsgLeave
	MsgReply
	MsgDiff
	MsgHeartbeat
)

// Protocol event names.
const (
	EventJoin      = "phx_join"
	EventLeave     = "phx_leave"
	EventReply     = "phx_reply"
	EventHeartbeat = "heartbeat"
	EventDiff      = "diff"

	// TopicPhoenix is the topic heartbeats are sent on.
	TopicPhoenix = "phoenix"
)

// String returns a string representation of the message type.
func (mt MessageType) String() string {
	switch mt {
	case MsgJoin:
		return "join"
	case MsgLeave:
		return "leave"
	case MsgEvent:
		return "event"
	case MsgReply:
		return "reply"
	case MsgDiff:
		return "diff"
	case MsgHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// TypeOf maps an event name to its message type. Anything that is not a
// protocol event is a user event.
func TypeOf(event string) MessageType {
	switch event {
	case EventJoin:
		return MsgJoin
	case EventLeave:
		return MsgLeave
	case EventReply:
		return MsgReply
	case EventHeartbeat, "phx_heartbeat":
		return MsgHeartbeat
	case EventDiff:
		return MsgDiff
	default:
		return MsgEvent
	}
}

// Message is one frame of the live protocol.
type Message struct {
	JoinRef string         `json:"join_ref,omitempty" msgpack:"join_ref,omitempty"`
	Ref     string         `json:"ref,omitempty" msgpack:"ref,omitempty"`
	Topic   string         `json:"topic" msgpack:"topic"`
	Event   string         `json:"event" msgpack:"event"`
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// Type returns the message type derived from the event.
func (m *Message) Type() MessageType {
	return TypeOf(m.Event)
}

// PayloadString retrieves a string value from the payload.
func (m *Message) PayloadString(key string) string {
	if v, ok := m.Payload[key].(string); ok {
		return v
	}
	return ""
}

// Join creates a join message.
func Join(ref, topic string, params map[string]any) *Message {
	return &Message{JoinRef: ref, Ref: ref, Topic: topic, Event: EventJoin, Payload: params}
}

// Event creates a user event message.
func Event(ref, topic, event string, payload map[string]any) *Message {
	return &Message{Ref: ref, Topic: topic, Event: event, Payload: payload}
}

// Heartbeat creates a heartbeat message.
func Heartbeat(ref string) *Message {
	return &Message{Ref: ref, Topic: TopicPhoenix, Event: EventHeartbeat, Payload: map[string]any{}}
}

// Reply creates a reply message.
func Reply(ref, topic, status string, response map[string]any) *Message {
	if response == nil {
		response = map[string]any{}
	}
	return &Message{
		Ref:   ref,
		Topic: topic,
		Event: EventReply,
		Payload: map[string]any{
			"status":   status,
			"response": response,
		},
	}
}

// OkReply creates a successful reply message.
func OkReply(ref, topic string, response map[string]any) *Message {
	return Reply(ref, topic, "ok", response)
}

// ErrorReply creates an error reply message.
func ErrorReply(ref, topic string, reason string) *Message {
	return Reply(ref, topic, "error", map[string]any{"reason": reason})
}
