// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package agentrpc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/bwbridge/internal/engine"
	"github.com/holomush/bwbridge/internal/events"
	"github.com/holomush/bwbridge/internal/wire"
	"github.com/holomush/bwbridge/pkg/errutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testAgent is the agent side of a connection.
type testAgent struct {
	conn Conn
}

func (a *testAgent) send(msgType string, data any) error {
	env, err := wire.NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return a.conn.Write(env)
}

func (a *testAgent) recv() (wire.Envelope, error) {
	return a.conn.Read(time.Now().Add(2 * time.Second))
}

// hello sends a hello and returns the bridge's answer.
func (a *testAgent) hello(t *testing.T, protocol string) wire.Envelope {
	t.Helper()
	require.NoError(t, a.send(MsgHello, Hello{Protocol: protocol, Name: "test-agent"}))
	env, err := a.recv()
	require.NoError(t, err)
	return env
}

func startServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	s := newTestServer(t, opts...)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, s.Stop(context.Background()))
	})
	return s
}

func dial(t *testing.T, s *Server) *testAgent {
	t.Helper()
	c, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	a := &testAgent{conn: NewStreamConn(c, 0)}
	t.Cleanup(func() { _ = a.conn.Close() })
	return a
}

func attach(t *testing.T, s *Server) *testAgent {
	t.Helper()
	a := dial(t, s)
	ack := a.hello(t, "1.2.0")
	require.Equal(t, MsgAck, ack.Type)
	require.Eventually(t, s.Attached, time.Second, 5*time.Millisecond)
	return a
}

// script runs the agent side of one or more turns and reports what it saw.
func script(a *testAgent, steps func(seen *[]string) error) <-chan []string {
	out := make(chan []string, 1)
	go func() {
		var seen []string
		if err := steps(&seen); err != nil {
			seen = append(seen, "error: "+err.Error())
		}
		out <- seen
	}()
	return out
}

// expectTurn reads one notification, records its type and ends the turn.
func expectTurn(a *testAgent, seen *[]string) error {
	env, err := a.recv()
	if err != nil {
		return err
	}
	*seen = append(*seen, env.Type)
	return a.send(MsgDone, nil)
}

func TestHandshake_AcceptsCompatibleProtocol(t *testing.T) {
	s := startServer(t)
	before := testutil.ToFloat64(handshakesTotal.WithLabelValues(handshakeAccepted))

	a := dial(t, s)
	env := a.hello(t, "1.4.2")
	require.Equal(t, MsgAck, env.Type)

	var ack Ack
	require.NoError(t, env.Decode(&ack))
	assert.Equal(t, ProtocolVersion, ack.Protocol)
	assert.Eventually(t, s.Attached, time.Second, 5*time.Millisecond)
	assert.InDelta(t, before+1, testutil.ToFloat64(handshakesTotal.WithLabelValues(handshakeAccepted)), 0)
}

func TestHandshake_RejectsIncompatibleProtocol(t *testing.T) {
	s := startServer(t)

	tests := []struct {
		name     string
		protocol string
		reason   string
	}{
		{"next major", "2.0.0", "not supported"},
		{"older major", "0.9.0", "not supported"},
		{"not semver", "banana", "invalid protocol version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := dial(t, s)
			env := a.hello(t, tt.protocol)
			require.Equal(t, MsgNack, env.Type)

			var nack Nack
			require.NoError(t, env.Decode(&nack))
			assert.Contains(t, nack.Reason, tt.reason)

			_, err := a.recv()
			assert.Error(t, err, "connection should be closed after nack")
		})
	}
	assert.False(t, s.Attached())
}

func TestHandshake_RequiresHelloFirst(t *testing.T) {
	s := startServer(t)
	a := dial(t, s)

	require.NoError(t, a.send(ReqUnits, nil))
	env, err := a.recv()
	require.NoError(t, err)
	require.Equal(t, MsgNack, env.Type)
	assert.False(t, s.Attached())
}

func TestHandshake_OneAgentAtATime(t *testing.T) {
	s := startServer(t)
	attach(t, s)

	second := dial(t, s)
	env := second.hello(t, "1.0.0")
	require.Equal(t, MsgNack, env.Type)

	var nack Nack
	require.NoError(t, env.Decode(&nack))
	assert.Equal(t, "an agent is already attached", nack.Reason)
}

func TestNotify_WithoutAgentIsNoop(t *testing.T) {
	s := startServer(t)
	sess, eng := newTestSession(t)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Connected(ctx, sess)
		s.MatchStarted(ctx, sess)
		s.Refresh(ctx, sess)
		s.Event(ctx, sess, events.Notification{Kind: engine.EventUnitCreate, Arg0: 5})
		s.KeyPressed(ctx, sess, 65)
		s.MatchEnded(ctx, sess)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifications blocked without an agent")
	}
	assert.Empty(t, eng.Orders)
}

func TestTurn_FreshAgentCatchesUpThenServesRequests(t *testing.T) {
	s := startServer(t)
	sess, eng := newTestSession(t)
	a := attach(t, s)
	ctx := context.Background()

	got := script(a, func(seen *[]string) error {
		// connected and match_start catch-up turns.
		for range 2 {
			if err := expectTurn(a, seen); err != nil {
				return err
			}
		}
		env, err := a.recv()
		if err != nil {
			return err
		}
		*seen = append(*seen, env.Type)
		if err := a.send(ReqCommand, CommandRequest{Unit: ptr(marine), Action: "move", Shape: "position", X: 10, Y: 20}); err != nil {
			return err
		}
		reply, err := a.recv()
		if err != nil {
			return err
		}
		*seen = append(*seen, string(reply.Data))
		if err := a.send(MsgDone, nil); err != nil {
			return err
		}
		return expectTurn(a, seen)
	})

	s.Refresh(ctx, sess)
	s.Event(ctx, sess, events.Notification{Kind: engine.EventUnitShow, Arg0: 5})

	assert.Equal(t, []string{
		MsgConnected,
		MsgMatchStart,
		MsgRefresh,
		`{"request":"command","ok":true,"result":true}`,
		MsgEvent,
	}, <-got)
	require.Len(t, eng.Orders, 1)
	assert.Equal(t, engine.Position{X: 10, Y: 20}, eng.Orders[0].Position)
	assert.True(t, s.Attached())
}

func TestTurn_ConnectedIsNotRepeatedForFreshAgent(t *testing.T) {
	s := startServer(t)
	sess, _ := newTestSession(t)
	a := attach(t, s)

	got := script(a, func(seen *[]string) error {
		for range 2 {
			if err := expectTurn(a, seen); err != nil {
				return err
			}
		}
		return nil
	})
	s.Connected(context.Background(), sess)
	s.MatchStarted(context.Background(), sess)

	assert.Equal(t, []string{MsgConnected, MsgMatchStart}, <-got)
}

func TestTurn_TimeoutDetachesAgent(t *testing.T) {
	s := startServer(t, WithTurnTimeout(50*time.Millisecond))
	sess, _ := newTestSession(t)
	a := attach(t, s)
	before := testutil.ToFloat64(detachesTotal.WithLabelValues(detachTimeout))

	got := script(a, func(seen *[]string) error {
		env, err := a.recv()
		if err != nil {
			return err
		}
		*seen = append(*seen, env.Type)
		// Never say done; the bridge hangs up.
		if _, err := a.recv(); err != nil {
			*seen = append(*seen, "closed")
		}
		return nil
	})

	start := time.Now()
	s.Connected(context.Background(), sess)
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, []string{MsgConnected, "closed"}, <-got)
	assert.False(t, s.Attached())
	assert.InDelta(t, before+1, testutil.ToFloat64(detachesTotal.WithLabelValues(detachTimeout)), 0)
}

func TestTurn_AgentDisconnectMakesNotificationsNoops(t *testing.T) {
	s := startServer(t)
	sess, _ := newTestSession(t)
	a := attach(t, s)
	require.NoError(t, a.conn.Close())

	ctx := context.Background()
	s.Refresh(ctx, sess)
	assert.False(t, s.Attached())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Refresh(ctx, sess)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notification blocked after agent left")
	}
}

func TestTurn_NewAgentAttachesAfterDetach(t *testing.T) {
	s := startServer(t)
	sess, _ := newTestSession(t)
	first := attach(t, s)
	require.NoError(t, first.conn.Close())
	s.Refresh(context.Background(), sess)
	require.False(t, s.Attached())

	second := attach(t, s)
	got := script(second, func(seen *[]string) error {
		for range 2 {
			if err := expectTurn(second, seen); err != nil {
				return err
			}
		}
		return nil
	})
	s.MatchEnded(context.Background(), sess)

	assert.Equal(t, []string{MsgConnected, MsgMatchEnd}, <-got)
}

func TestTurn_CancelledContextEndsTurn(t *testing.T) {
	s := startServer(t)
	sess, _ := newTestSession(t)
	a := attach(t, s)

	got := script(a, func(seen *[]string) error {
		env, err := a.recv()
		if err != nil {
			return err
		}
		*seen = append(*seen, env.Type)
		if _, err := a.recv(); err != nil {
			*seen = append(*seen, "closed")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	s.Connected(ctx, sess)

	assert.Equal(t, []string{MsgConnected, "closed"}, <-got)
	assert.False(t, s.Attached())
}

func TestWebsocketTransport(t *testing.T) {
	s := startServer(t, WithTransport(TransportWebsocket))
	sess, _ := newTestSession(t)

	ws, resp, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+WebsocketPath, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	a := &testAgent{conn: NewWebsocketConn(ws, 0)}
	t.Cleanup(func() { _ = a.conn.Close() })

	ack := a.hello(t, "1.0.0")
	require.Equal(t, MsgAck, ack.Type)
	require.Eventually(t, s.Attached, time.Second, 5*time.Millisecond)

	got := script(a, func(seen *[]string) error {
		env, err := a.recv()
		if err != nil {
			return err
		}
		*seen = append(*seen, env.Type)
		if err := a.send(ReqPlayerName, PlayerRequest{Player: 0}); err != nil {
			return err
		}
		reply, err := a.recv()
		if err != nil {
			return err
		}
		*seen = append(*seen, string(reply.Data))
		return a.send(MsgDone, nil)
	})
	s.Connected(context.Background(), sess)

	assert.Equal(t, []string{MsgConnected, `{"request":"player_name","ok":true,"result":"bridge"}`}, <-got)
}

func TestWebsocketTransport_RejectsBinaryMessages(t *testing.T) {
	s := startServer(t, WithTransport(TransportWebsocket))

	ws, resp, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+WebsocketPath, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = ws.Close() })

	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte(`{"type":"hello"}`)))
	_, _, err = ws.ReadMessage()
	assert.Error(t, err)
	assert.False(t, s.Attached())
}

func TestServer_UnixSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "bwb")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "agent.sock")

	s, err := NewServer("unix", path, WithLogger(discard()))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	c, err := net.Dial("unix", path)
	require.NoError(t, err)
	a := &testAgent{conn: NewStreamConn(c, 0)}
	defer func() { _ = a.conn.Close() }()
	require.Equal(t, MsgAck, a.hello(t, "1.0.0").Type)

	require.NoError(t, s.Stop(context.Background()))
	assert.NoFileExists(t, path)
	assert.False(t, s.Attached())
}

func TestServer_StopClosesAttachedAgent(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Start(context.Background()))
	a := attach(t, s)

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.Attached())
	_, err := a.recv()
	assert.Error(t, err)
}

func TestServer_StartTwice(t *testing.T) {
	s := startServer(t)
	err := s.Start(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeAlreadyRunning)
}

func TestNewServer_RejectsUnknownTransport(t *testing.T) {
	_, err := NewServer("tcp", "127.0.0.1:0", WithTransport("carrier-pigeon"))
	assert.Error(t, err)
}

func TestParseTransport(t *testing.T) {
	tr, ok := ParseTransport("websocket")
	assert.True(t, ok)
	assert.Equal(t, TransportWebsocket, tr)

	_, ok = ParseTransport("smoke")
	assert.False(t, ok)
}
