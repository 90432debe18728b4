package router

import (
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/core"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/protocol"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/transport"
)

// TransportAdapter lets a core.Socket write to a transport.WebSocket.
type TransportAdapter struct {
	ws *transport.WebSocket
}

// NewTransportAdapter wraps ws.
func NewTransportAdapter(ws *transport.WebSocket) *TransportAdapter {
	return &TransportAdapter{ws: ws}
}

// Send implements core.Transport.
func (a *TransportAdapter) Send(msg core.Message) error {
	return a.ws.Send(&protocol.Message{
		Ref:     msg.Ref,
		Topic:   msg.Topic,
		Event:   msg.Event,
		Payload: msg.Payload,
	})
}

// Close implements core.Transport.
func (a *TransportAdapter) Close() error {
	return a.ws.Close()
}

// IsConnected implements core.Transport.
func (a *TransportAdapter) IsConnected() bool {
	return a.ws.IsConnected()
}

// WebSocket returns the wrapped connection.
func (a *TransportAdapter) WebSocket() *transport.WebSocket {
	return a.ws
}
