package protocol

import (
	"errors"
	"testing"
)

func TestPhoenixCodec_Encode(t *testing.T) {
	codec := NewPhoenixCodec()

	out, err := codec.Encode(OkReply("3", "lv:abc", nil))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `[null,"3","lv:abc","phx_reply",{"response":{},"status":"ok"}]`
	if string(out) != want {
		t.Errorf("got %s\nwant %s", out, want)
	}
}

func TestPhoenixCodec_Decode(t *testing.T) {
	codec := NewPhoenixCodec()

	msg, err := codec.Decode([]byte(`["1","2","lv:abc","select",{"tag":"contact"}]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.JoinRef != "1" || msg.Ref != "2" || msg.Topic != "lv:abc" || msg.Event != "select" {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.PayloadString("tag") != "contact" {
		t.Errorf("tag = %q", msg.PayloadString("tag"))
	}
	if msg.Type() != MsgEvent {
		t.Errorf("type = %s", msg.Type())
	}

	msg, err = codec.Decode([]byte(`[null,null,"phoenix","heartbeat",null]`))
	if err != nil {
		t.Fatalf("Decode heartbeat: %v", err)
	}
	if msg.Payload == nil || msg.Type() != MsgHeartbeat {
		t.Errorf("unexpected heartbeat %+v", msg)
	}

	for _, bad := range []string{`[]`, `["a","b"]`, `{}`, `nope`, `[null,null,1,"e",{}]`} {
		if _, err := codec.Decode([]byte(bad)); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("Decode(%s) err = %v, want ErrInvalidMessage", bad, err)
		}
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	in := Event("7", "lv:abc", "toggle", map[string]any{"group": "Tutorials"})

	for _, codec := range []Codec{NewJSONCodec(), NewMsgPackCodec(), NewPhoenixCodec()} {
		t.Run(codec.Name(), func(t *testing.T) {
			data, err := codec.Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			out, err := codec.Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !messagesEqual(in, out) {
				t.Errorf("roundtrip mismatch: %+v != %+v", in, out)
			}
		})
	}
}

func TestCodecRegistry(t *testing.T) {
	r := NewCodecRegistry()

	if r.Default().Name() != "live.phoenix" {
		t.Errorf("default = %s", r.Default().Name())
	}
	if got := r.Negotiate("live.msgpack"); !got.Binary() {
		t.Error("msgpack should be binary")
	}
	if got := r.Negotiate(""); got.Name() != "live.phoenix" {
		t.Errorf("Negotiate(\"\") = %s", got.Name())
	}
	if err := r.SetDefault("nope"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("SetDefault err = %v", err)
	}
	if err := r.SetDefault("live.json"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if r.Negotiate("other").Name() != "live.json" {
		t.Error("fallback not updated")
	}
	if len(r.Names()) != 3 || r.Names()[0] != "live.json" {
		t.Errorf("Names = %v", r.Names())
	}
}

func TestTypeOf(t *testing.T) {
	cases := map[string]MessageType{
		"phx_join":      MsgJoin,
		"phx_leave":     MsgLeave,
		"heartbeat":     MsgHeartbeat,
		"phx_heartbeat": MsgHeartbeat,
		"phx_reply":     MsgReply,
		"diff":          MsgDiff,
		"select":        MsgEvent,
	}
	for event, want := range cases {
		if got := TypeOf(event); got != want {
			t.Errorf("TypeOf(%q) = %s, want %s", event, got, want)
		}
	}
}
