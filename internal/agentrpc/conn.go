// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package agentrpc

import (
	"encoding/json"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/oops"

	"github.com/holomush/bwbridge/internal/wire"
)

// Transport selects how agents attach.
type Transport string

// Transports.
const (
	// TransportSocket frames envelopes on a unix or tcp stream.
	TransportSocket Transport = "socket"
	// TransportWebsocket sends one envelope per text message.
	TransportWebsocket Transport = "websocket"
)

// ParseTransport resolves a transport by name.
func ParseTransport(name string) (Transport, bool) {
	switch t := Transport(name); t {
	case TransportSocket, TransportWebsocket:
		return t, true
	default:
		return "", false
	}
}

const writeTimeout = 5 * time.Second

// Conn is one agent connection. Reads and writes happen on one goroutine at
// a time: the handshake goroutine until the agent is attached, the bridge
// goroutine afterwards.
type Conn interface {
	// Read blocks for the next envelope until deadline.
	Read(deadline time.Time) (wire.Envelope, error)
	Write(env wire.Envelope) error
	Close() error
	RemoteAddr() string
}

type streamConn struct {
	c   net.Conn
	max int
}

// NewStreamConn frames envelopes over a byte stream.
func NewStreamConn(c net.Conn, maxFrame int) Conn {
	return &streamConn{c: c, max: maxFrame}
}

func (s *streamConn) Read(deadline time.Time) (wire.Envelope, error) {
	if err := s.c.SetReadDeadline(deadline); err != nil {
		return wire.Envelope{}, oops.Wrapf(err, "set read deadline")
	}
	return wire.ReadEnvelope(s.c, s.max)
}

func (s *streamConn) Write(env wire.Envelope) error {
	if err := s.c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return oops.Wrapf(err, "set write deadline")
	}
	return wire.WriteEnvelope(s.c, env)
}

func (s *streamConn) Close() error { return s.c.Close() }

func (s *streamConn) RemoteAddr() string { return s.c.RemoteAddr().String() }

type wsConn struct {
	c *websocket.Conn
}

// NewWebsocketConn sends one JSON envelope per text message. Messages over
// maxFrame bytes close the connection.
func NewWebsocketConn(c *websocket.Conn, maxFrame int) Conn {
	if maxFrame <= 0 {
		maxFrame = wire.MaxFrame
	}
	c.SetReadLimit(int64(maxFrame))
	return &wsConn{c: c}
}

func (w *wsConn) Read(deadline time.Time) (wire.Envelope, error) {
	if err := w.c.SetReadDeadline(deadline); err != nil {
		return wire.Envelope{}, oops.Wrapf(err, "set read deadline")
	}
	mt, data, err := w.c.ReadMessage()
	if err != nil {
		return wire.Envelope{}, err
	}
	if mt != websocket.TextMessage {
		return wire.Envelope{}, oops.Code(wire.CodeBadEnvelope).With("message_type", mt).Errorf("expected a text message")
	}
	var env wire.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return wire.Envelope{}, oops.Code(wire.CodeBadEnvelope).Wrapf(err, "unmarshal envelope")
	}
	return env, nil
}

func (w *wsConn) Write(env wire.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return oops.Code(wire.CodeBadEnvelope).With("type", env.Type).Wrapf(err, "marshal envelope")
	}
	if err := w.c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return oops.Wrapf(err, "set write deadline")
	}
	if err := w.c.WriteMessage(websocket.TextMessage, data); err != nil {
		return oops.With("type", env.Type).Wrapf(err, "write message")
	}
	return nil
}

func (w *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return w.c.Close()
}

func (w *wsConn) RemoteAddr() string { return w.c.RemoteAddr().String() }
