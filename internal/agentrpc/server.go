// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package agentrpc attaches an out-of-process agent to the bridge.
//
// The agent connects over a framed socket or a websocket and completes a
// hello/ack handshake. From then on every bridge notification opens a turn:
// the agent may send any number of requests, each answered with a reply, and
// ends the turn with done. Without an attached agent notifications are
// dropped and the engine loop carries on.
package agentrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gorilla/websocket"
	"github.com/samber/oops"

	"github.com/holomush/bwbridge/internal/bridge"
	"github.com/holomush/bwbridge/internal/events"
	"github.com/holomush/bwbridge/internal/wire"
	"github.com/holomush/bwbridge/pkg/errutil"
)

// Defaults for the agent server.
const (
	DefaultTurnTimeout      = 10 * time.Second
	DefaultHandshakeTimeout = 5 * time.Second
)

// WebsocketPath is where the websocket transport accepts agents.
const WebsocketPath = "/agent"

// CodeAlreadyRunning marks a second Start.
const CodeAlreadyRunning = "AGENT_SERVER_RUNNING"

// Server accepts one agent at a time and relays bridge notifications to it.
// It implements bridge.Agent.
type Server struct {
	network          string
	addr             string
	transport        Transport
	strict           bool
	turnTimeout      time.Duration
	handshakeTimeout time.Duration
	maxFrame         int
	logger           *slog.Logger

	constraint *semver.Constraints
	handlers   map[string]handler
	validator  *validator

	listener   net.Listener
	httpServer *http.Server
	upgrader   websocket.Upgrader
	wg         sync.WaitGroup

	mu       sync.Mutex
	reserved bool
	pending  Conn // handshaken, not yet seen by the bridge goroutine
	active   Conn // owned by the bridge goroutine
	stopped  bool
}

// Option configures a Server during construction.
type Option func(*Server)

// WithTransport selects the socket or websocket transport.
func WithTransport(t Transport) Option {
	return func(s *Server) {
		s.transport = t
	}
}

// WithStrict validates every request payload against the protocol schema.
func WithStrict(strict bool) Option {
	return func(s *Server) {
		s.strict = strict
	}
}

// WithTurnTimeout bounds how long the agent may take to end a turn. An agent
// that overruns it is detached.
func WithTurnTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.turnTimeout = d
		}
	}
}

// WithHandshakeTimeout bounds how long a new connection may take to say
// hello.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.handshakeTimeout = d
		}
	}
}

// WithMaxFrame bounds inbound message size.
func WithMaxFrame(n int) Option {
	return func(s *Server) {
		s.maxFrame = n
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates an agent server for network ("unix" or "tcp") and addr.
// Nothing listens until Start.
func NewServer(network, addr string, opts ...Option) (*Server, error) {
	constraint, err := semver.NewConstraint(ProtocolConstraint)
	if err != nil {
		return nil, oops.With("constraint", ProtocolConstraint).Wrapf(err, "parse protocol constraint")
	}
	s := &Server{
		network:          network,
		addr:             addr,
		transport:        TransportSocket,
		turnTimeout:      DefaultTurnTimeout,
		handshakeTimeout: DefaultHandshakeTimeout,
		maxFrame:         wire.MaxFrame,
		logger:           slog.Default(),
		constraint:       constraint,
		handlers:         newHandlers(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, ok := ParseTransport(string(s.transport)); !ok {
		return nil, oops.With("transport", string(s.transport)).Errorf("unknown agent transport")
	}
	if s.strict {
		s.validator = newValidator()
	}
	return s, nil
}

// Start begins accepting agents.
func (s *Server) Start(ctx context.Context) error {
	if s.listener != nil {
		return oops.Code(CodeAlreadyRunning).Errorf("agent server is already running")
	}
	if s.network == "unix" {
		if err := os.Remove(s.addr); err != nil && !os.IsNotExist(err) {
			return oops.With("path", s.addr).Wrapf(err, "remove stale agent socket")
		}
	}
	ln, err := net.Listen(s.network, s.addr)
	if err != nil {
		return oops.With("network", s.network).With("addr", s.addr).Wrapf(err, "listen for agents")
	}
	s.listener = ln

	switch s.transport {
	case TransportWebsocket:
		mux := http.NewServeMux()
		mux.HandleFunc("GET "+WebsocketPath, s.handleWebsocket)
		s.httpServer = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		s.wg.Go(func() {
			if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errutil.LogError(s.logger, "agent websocket server error", err)
			}
		})
	default:
		s.wg.Go(func() { s.acceptLoop(ln) })
	}

	s.logger.InfoContext(ctx, "agent server listening",
		"network", s.network,
		"addr", ln.Addr().String(),
		"transport", string(s.transport),
		"strict", s.strict,
	)
	return nil
}

// Addr returns the listening address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Attached reports whether an agent has completed the handshake and not yet
// gone away.
func (s *Server) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil || s.active != nil
}

// Stop closes the listener and any attached agent. A turn in progress ends
// as if the agent had disconnected.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	conns := []Conn{s.pending, s.active}
	s.pending, s.active = nil, nil
	s.mu.Unlock()
	for _, c := range conns {
		if c != nil {
			_ = c.Close()
			detachesTotal.WithLabelValues(detachShutdown).Inc()
		}
	}
	attachedGauge.Set(0)

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return oops.Wrapf(err, "shutdown agent websocket server")
		}
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("failed to close agent listener", "error", err)
		}
	}
	s.wg.Wait()

	if s.network == "unix" && s.listener != nil {
		if err := os.Remove(s.addr); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove agent socket", "path", s.addr, "error", err)
		}
	}
	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("agent accept failed", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		s.wg.Go(func() { s.handshake(NewStreamConn(c, s.maxFrame)) })
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("agent websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.handshake(NewWebsocketConn(ws, s.maxFrame))
}

// handshake reads hello and answers ack or nack. An accepted connection is
// parked until the bridge goroutine picks it up on its next notification.
func (s *Server) handshake(c Conn) {
	env, err := c.Read(time.Now().Add(s.handshakeTimeout))
	if err != nil {
		s.logger.Debug("agent handshake failed", "remote", c.RemoteAddr(), "error", err)
		handshakesTotal.WithLabelValues(handshakeRejected).Inc()
		_ = c.Close()
		return
	}
	if env.Type != MsgHello {
		s.refuse(c, fmt.Sprintf("expected %s, got %s", MsgHello, env.Type))
		return
	}
	var hello Hello
	if err := env.Decode(&hello); err != nil {
		s.refuse(c, "malformed hello")
		return
	}
	v, err := semver.NewVersion(hello.Protocol)
	if err != nil {
		s.refuse(c, fmt.Sprintf("invalid protocol version %q", hello.Protocol))
		return
	}
	if !s.constraint.Check(v) {
		s.refuse(c, fmt.Sprintf("protocol %s not supported, want %s", v, ProtocolConstraint))
		return
	}

	s.mu.Lock()
	busy := s.stopped || s.reserved || s.pending != nil || s.active != nil
	if !busy {
		s.reserved = true
	}
	s.mu.Unlock()
	if busy {
		s.refuse(c, "an agent is already attached")
		return
	}

	ack, err := wire.NewEnvelope(MsgAck, Ack{Protocol: ProtocolVersion, Bridge: "bwbridge"})
	if err == nil {
		err = c.Write(ack)
	}
	s.mu.Lock()
	s.reserved = false
	if err == nil && s.stopped {
		err = oops.Errorf("server stopped")
	}
	if err == nil {
		s.pending = c
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Debug("agent ack failed", "remote", c.RemoteAddr(), "error", err)
		handshakesTotal.WithLabelValues(handshakeRejected).Inc()
		_ = c.Close()
		return
	}

	handshakesTotal.WithLabelValues(handshakeAccepted).Inc()
	attachedGauge.Set(1)
	s.logger.Info("agent attached",
		"name", hello.Name,
		"protocol", hello.Protocol,
		"remote", c.RemoteAddr(),
	)
}

func (s *Server) refuse(c Conn, reason string) {
	handshakesTotal.WithLabelValues(handshakeRejected).Inc()
	s.logger.Info("agent refused", "remote", c.RemoteAddr(), "reason", reason)
	if nack, err := wire.NewEnvelope(MsgNack, Nack{Reason: reason}); err == nil {
		_ = c.Write(nack)
	}
	_ = c.Close()
}

// acquire returns the agent for this notification. fresh is true the first
// time the bridge goroutine sees a newly attached agent.
func (s *Server) acquire() (c Conn, fresh bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil && s.pending != nil {
		s.active, s.pending = s.pending, nil
		return s.active, true
	}
	return s.active, false
}

func (s *Server) detach(ctx context.Context, c Conn, err error) {
	s.mu.Lock()
	owned := s.active == c
	if owned {
		s.active = nil
	}
	attached := s.pending != nil
	s.mu.Unlock()
	_ = c.Close()
	if !owned {
		return
	}
	if !attached {
		attachedGauge.Set(0)
	}

	reason := detachReason(ctx, err)
	detachesTotal.WithLabelValues(reason).Inc()
	s.logger.WarnContext(ctx, "agent detached",
		"remote", c.RemoteAddr(),
		"reason", reason,
		"error", err,
	)
}

func detachReason(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return detachShutdown
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return detachTimeout
	}
	var closeErr *websocket.CloseError
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.As(err, &closeErr) {
		return detachClosed
	}
	return detachError
}

// notify runs one turn. A freshly attached agent first gets the session's
// connected notification and, mid-match, a match_start.
func (s *Server) notify(ctx context.Context, sess *bridge.Session, msgType string, data any, inMatch bool) {
	c, fresh := s.acquire()
	if c == nil {
		return
	}
	if fresh {
		if msgType != MsgConnected && !s.turn(ctx, c, sess, MsgConnected, connectedInfo(sess)) {
			return
		}
		if inMatch && !s.turn(ctx, c, sess, MsgMatchStart, gameInfo(sess.Game())) {
			return
		}
	}
	s.turn(ctx, c, sess, msgType, data)
}

// turn sends one notification and serves requests until done. It reports
// whether the agent is still attached.
func (s *Server) turn(ctx context.Context, c Conn, sess *bridge.Session, msgType string, data any) bool {
	env, err := wire.NewEnvelope(msgType, data)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "encode notification failed", err)
		return true
	}
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	start := time.Now()
	if err := c.Write(env); err != nil {
		s.detach(ctx, c, err)
		return false
	}
	deadline := start.Add(s.turnTimeout)
	for {
		req, err := c.Read(deadline)
		if err != nil {
			s.detach(ctx, c, err)
			return false
		}
		if req.Type == MsgDone {
			turnSeconds.Observe(time.Since(start).Seconds())
			return true
		}
		if err := c.Write(s.serve(ctx, sess, req)); err != nil {
			s.detach(ctx, c, err)
			return false
		}
	}
}

// serve answers one request. Failures go back to the agent in the reply.
func (s *Server) serve(ctx context.Context, sess *bridge.Session, req wire.Envelope) wire.Envelope {
	label := req.Type
	h, ok := s.handlers[req.Type]
	var (
		result any
		err    error
	)
	switch {
	case !ok:
		label = "unknown"
		err = oops.Code(CodeUnknownRequest).With("request", req.Type).Errorf("unknown request %q", req.Type)
	case s.validator != nil:
		if err = s.validator.Validate(req.Type, req.Data); err == nil {
			result, err = h(ctx, sess, req)
		}
	default:
		result, err = h(ctx, sess, req)
	}
	recordRequest(label, err)

	reply := Reply{Request: req.Type, OK: err == nil, Result: result}
	if err != nil {
		reply.Result = nil
		reply.Code = errutil.Code(err)
		reply.Error = err.Error()
		s.logger.DebugContext(ctx, "agent request failed",
			"request", req.Type,
			"code", reply.Code,
			"error", err,
		)
	}
	env, err := wire.NewEnvelope(MsgReply, reply)
	if err != nil {
		env, _ = wire.NewEnvelope(MsgReply, Reply{
			Request: req.Type,
			Code:    wire.CodeBadEnvelope,
			Error:   err.Error(),
		})
	}
	return env
}

// Connected implements bridge.Agent.
func (s *Server) Connected(ctx context.Context, sess *bridge.Session) {
	s.notify(ctx, sess, MsgConnected, connectedInfo(sess), false)
}

// MatchStarted implements bridge.Agent.
func (s *Server) MatchStarted(ctx context.Context, sess *bridge.Session) {
	s.notify(ctx, sess, MsgMatchStart, gameInfo(sess.Game()), false)
}

// Refresh implements bridge.Agent.
func (s *Server) Refresh(ctx context.Context, sess *bridge.Session) {
	s.notify(ctx, sess, MsgRefresh, Refresh{Frame: sess.Game().Frame()}, true)
}

// Event implements bridge.Agent.
func (s *Server) Event(ctx context.Context, sess *bridge.Session, n events.Notification) {
	s.notify(ctx, sess, MsgEvent, n, true)
}

// KeyPressed implements bridge.Agent.
func (s *Server) KeyPressed(ctx context.Context, sess *bridge.Session, code int) {
	s.notify(ctx, sess, MsgKey, Key{Code: code}, true)
}

// MatchEnded implements bridge.Agent.
func (s *Server) MatchEnded(ctx context.Context, sess *bridge.Session) {
	s.notify(ctx, sess, MsgMatchEnd, MatchEnd{Frame: sess.Game().Frame()}, false)
}

var _ bridge.Agent = (*Server)(nil)
