// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package remote talks to an engine host over a stream socket using the
// length-prefixed envelope framing. It implements the engine contract and
// the catalog source for the bridge.
package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"slices"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
	"github.com/holomush/bwbridge/internal/wire"
)

// Error codes for the engine link.
const (
	CodeDialFailed      = "ENGINE_DIAL_FAILED"
	CodeHandshake       = "ENGINE_HANDSHAKE_FAILED"
	CodeNotConnected    = "ENGINE_NOT_CONNECTED"
	CodeUnexpectedReply = "ENGINE_UNEXPECTED_REPLY"
	CodeHostError       = "ENGINE_HOST_ERROR"
)

// DefaultDialTimeout bounds one connection attempt.
const DefaultDialTimeout = 2 * time.Second

// DialFunc opens the stream to the host.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Client is the bridge side of the engine link. It caches the most recent
// frame; every Game method reads that cache. It is not safe for concurrent
// use.
type Client struct {
	network     string
	addr        string
	version     string
	dialTimeout time.Duration
	maxFrame    int
	dial        DialFunc
	logger      *slog.Logger

	conn      net.Conn
	connected bool

	state   FrameState
	self    engine.Handle
	hasSelf bool
	events  []engine.Event
	keys    [256]bool
	players map[engine.Handle]int
	units   map[engine.Handle]int
	mapData engine.Map
}

// Option configures a Client during construction.
type Option func(*Client)

// WithDialTimeout bounds each connection attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithMaxFrame limits inbound frame size.
func WithMaxFrame(n int) Option {
	return func(c *Client) {
		c.maxFrame = n
	}
}

// WithDialer replaces the network dialer.
func WithDialer(d DialFunc) Option {
	return func(c *Client) {
		c.dial = d
	}
}

// WithLogger sets the logger for link traffic.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithVersion sets the version announced in the hello.
func WithVersion(v string) Option {
	return func(c *Client) {
		c.version = v
	}
}

// New creates a client for the host at network/addr. Nothing is dialled
// until Connect.
func New(network, addr string, opts ...Option) *Client {
	c := &Client{
		network:     network,
		addr:        addr,
		version:     "dev",
		dialTimeout: DefaultDialTimeout,
		maxFrame:    wire.MaxFrame,
		logger:      slog.Default(),
		self:        engine.NoHandle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dial == nil {
		d := &net.Dialer{}
		c.dial = d.DialContext
	}
	return c
}

// Addr returns the host address.
func (c *Client) Addr() string {
	return c.network + "://" + c.addr
}

// Connect implements engine.Link. It makes one dial and hello exchange.
func (c *Client) Connect(ctx context.Context) error {
	c.drop()
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, err := c.dial(dialCtx, c.network, c.addr)
	if err != nil {
		return oops.Code(CodeDialFailed).With("addr", c.Addr()).Wrap(err)
	}
	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := wire.Send(conn, MsgHello, Hello{Client: "bwbridge", Version: c.version}); err != nil {
		_ = conn.Close()
		return oops.Code(CodeHandshake).With("addr", c.Addr()).Wrap(err)
	}
	env, err := wire.ReadEnvelope(conn, c.maxFrame)
	if err != nil {
		_ = conn.Close()
		return oops.Code(CodeHandshake).With("addr", c.Addr()).Wrap(err)
	}
	if env.Type != MsgWelcome {
		_ = conn.Close()
		return oops.Code(CodeHandshake).With("addr", c.Addr()).With("reply", env.Type).
			Errorf("host did not welcome the bridge")
	}
	var welcome Welcome
	if err := env.Decode(&welcome); err != nil {
		_ = conn.Close()
		return err
	}
	_ = conn.SetDeadline(time.Time{})

	c.conn = conn
	c.connected = true
	c.logger.DebugContext(ctx, "engine host welcomed bridge", "addr", c.Addr(), "engine", welcome.Engine)
	return nil
}

// Connected implements engine.Link.
func (c *Client) Connected() bool { return c.connected }

// Close implements engine.Link.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.connected = false
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return oops.Wrap(err)
	}
	return nil
}

func (c *Client) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connected = false
}

// fail records a broken link. The cached frame is kept until the next Update.
func (c *Client) fail(op string, err error) error {
	c.drop()
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		c.logger.Debug("engine host closed the link", "op", op)
	}
	return oops.With("op", op).Wrap(err)
}

// roundTrip sends one request and reads its reply, honouring ctx between the
// two.
func (c *Client) roundTrip(ctx context.Context, msgType string, data any) (wire.Envelope, error) {
	if !c.connected {
		return wire.Envelope{}, oops.Code(CodeNotConnected).With("op", msgType).Errorf("engine link is down")
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
		defer func() {
			if c.conn != nil {
				_ = c.conn.SetDeadline(time.Time{})
			}
		}()
	}
	if err := wire.Send(c.conn, msgType, data); err != nil {
		return wire.Envelope{}, c.fail(msgType, err)
	}
	env, err := wire.ReadEnvelope(c.conn, c.maxFrame)
	if err != nil {
		return wire.Envelope{}, c.fail(msgType, err)
	}
	if env.Type == MsgError {
		var he HostError
		_ = env.Decode(&he)
		return wire.Envelope{}, oops.Code(CodeHostError).With("op", msgType).Errorf("engine host: %s", he.Message)
	}
	return env, nil
}

func expect(env wire.Envelope, want string, v any) error {
	if env.Type != want {
		return oops.Code(CodeUnexpectedReply).With("want", want).With("got", env.Type).
			Errorf("unexpected reply %q", env.Type)
	}
	return env.Decode(v)
}

// Update implements engine.Link.
func (c *Client) Update(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env, err := c.roundTrip(ctx, MsgUpdate, nil)
	if err != nil {
		// Events of the cached frame were already consumed.
		c.events = c.events[:0]
		return err
	}
	var st FrameState
	if err := expect(env, MsgFrame, &st); err != nil {
		return err
	}
	c.apply(st)
	return nil
}

func (c *Client) apply(st FrameState) {
	c.state = st
	if st.Map != nil {
		c.mapData = *st.Map
		c.state.Map = nil
	}

	c.self, c.hasSelf = engine.NoHandle, false
	if st.Self != nil && !st.Replay {
		c.self, c.hasSelf = *st.Self, true
	}

	c.events = c.events[:0]
	for _, raw := range st.Events {
		c.events = append(c.events, raw.Event())
	}

	c.keys = [256]bool{}
	for _, k := range st.Keys {
		if k >= 0 && k < len(c.keys) {
			c.keys[k] = true
		}
	}

	c.players = make(map[engine.Handle]int, len(st.Players))
	for i, p := range st.Players {
		c.players[p.Handle] = i
	}
	c.units = make(map[engine.Handle]int, len(st.Units))
	for i, u := range st.Units {
		c.units[u.Handle] = i
	}
}

// LoadTables implements catalog.Source.
func (c *Client) LoadTables(ctx context.Context) (catalog.Tables, error) {
	env, err := c.roundTrip(ctx, MsgTables, nil)
	if err != nil {
		return catalog.Tables{}, err
	}
	var t catalog.Tables
	if err := expect(env, MsgTables, &t); err != nil {
		return catalog.Tables{}, err
	}
	return t, nil
}

// InGame implements engine.Game.
func (c *Client) InGame() bool { return c.state.InGame }

// Replay implements engine.Game.
func (c *Client) Replay() bool { return c.state.Replay }

// Frame implements engine.Game.
func (c *Client) Frame() int32 { return c.state.Frame }

// ReplayFrameTotal implements engine.Game.
func (c *Client) ReplayFrameTotal() int32 { return c.state.ReplayFrameTotal }

// RemainingLatencyFrames implements engine.Game.
func (c *Client) RemainingLatencyFrames() int32 { return c.state.RemainingLatencyFrames }

// LastError implements engine.Game.
func (c *Client) LastError() int32 { return c.state.LastError }

// Self implements engine.Game.
func (c *Client) Self() (engine.Handle, bool) { return c.self, c.hasSelf }

// Events implements engine.Game.
func (c *Client) Events() []engine.Event { return c.events }

// KeyState implements engine.Game.
func (c *Client) KeyState(code int) bool {
	return code >= 0 && code < len(c.keys) && c.keys[code]
}

// Players implements engine.Game.
func (c *Client) Players() []engine.Player { return c.state.Players }

// Player implements engine.Game.
func (c *Client) Player(h engine.Handle) (engine.Player, bool) {
	i, ok := c.players[h]
	if !ok {
		return engine.Player{}, false
	}
	return c.state.Players[i], true
}

// Units implements engine.Game.
func (c *Client) Units() []engine.Unit { return c.state.Units }

// Unit implements engine.Game.
func (c *Client) Unit(h engine.Handle) (engine.Unit, bool) {
	i, ok := c.units[h]
	if !ok {
		return engine.Unit{}, false
	}
	return c.state.Units[i], true
}

// UnitsOnTile implements engine.Game.
func (c *Client) UnitsOnTile(t engine.TilePosition) []engine.Handle {
	var out []engine.Handle
	for _, u := range c.state.Units {
		if u.Tile == t {
			out = append(out, u.Handle)
		}
	}
	slices.Sort(out)
	return out
}

// Map implements engine.Game.
func (c *Client) Map() engine.Map { return c.mapData }

// Terrain implements engine.Game.
func (c *Client) Terrain(ctx context.Context) (engine.Terrain, error) {
	env, err := c.roundTrip(ctx, MsgTerrain, nil)
	if err != nil {
		return engine.Terrain{}, err
	}
	var t engine.Terrain
	if err := expect(env, MsgTerrain, &t); err != nil {
		return engine.Terrain{}, err
	}
	return t, nil
}

func (c *Client) ask(msgType string, data any) bool {
	env, err := c.roundTrip(context.Background(), msgType, data)
	if err != nil {
		c.logger.Debug("engine request failed", "request", msgType, "error", err)
		return false
	}
	var r Result
	if err := expect(env, MsgResult, &r); err != nil {
		c.logger.Debug("engine request failed", "request", msgType, "error", err)
		return false
	}
	return r.OK
}

func (c *Client) notify(msgType string, data any) {
	if !c.connected {
		return
	}
	if err := wire.Send(c.conn, msgType, data); err != nil {
		_ = c.fail(msgType, err)
	}
}

// Issue implements engine.Actuator.
func (c *Client) Issue(o engine.Order) bool { return c.ask(MsgOrder, o) }

// Ask implements engine.Actuator.
func (c *Client) Ask(q engine.Query) bool { return c.ask(MsgQuery, q) }

// Draw implements engine.Actuator.
func (c *Client) Draw(d engine.Drawing) { c.notify(MsgDraw, d) }

// SendText implements engine.Actuator.
func (c *Client) SendText(text string) { c.notify(MsgSendText, Text{Text: text}) }

// SetOption implements engine.Actuator.
func (c *Client) SetOption(opt engine.Option, value int32) {
	c.notify(MsgSetOption, OptionValue{Option: opt, Value: value})
}

// LeaveGame implements engine.Actuator.
func (c *Client) LeaveGame() { c.notify(MsgLeaveGame, nil) }

var (
	_ engine.Link     = (*Client)(nil)
	_ engine.Game     = (*Client)(nil)
	_ engine.Actuator = (*Client)(nil)
	_ catalog.Source  = (*Client)(nil)
)
