// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package bridge runs the frame loop between the engine and the agent.
//
// One goroutine owns everything: it connects, loads the catalog, waits for
// a match, and then per tick lets the agent refresh, delivers events and key
// presses, and advances the engine. Link loss at any point goes back to the
// reconnect loop; a match in progress stays in progress across it.
package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/events"
	"github.com/holomush/bwbridge/internal/link"
	"github.com/holomush/bwbridge/internal/logging"
	"github.com/holomush/bwbridge/internal/snapshot"
	"github.com/holomush/bwbridge/internal/terrain"
	"github.com/holomush/bwbridge/pkg/errutil"
)

var tracer = otel.Tracer("bwbridge/bridge")

// CodeLinkDown marks a tick attempted without a live link.
const CodeLinkDown = "LINK_DOWN"

// Match outcome when a reset ends the match.
const outcomeReset = "reset"

// Status is a point-in-time view of the bridge, safe to read from any
// goroutine.
type Status struct {
	Link      string `json:"link"`
	Match     string `json:"match"`
	SessionID string `json:"session_id,omitempty"`
	Frame     int32  `json:"frame"`
	Matches   int64  `json:"matches"`
	Attempts  int64  `json:"connect_attempts"`
}

// Bridge drives one engine for the life of the process.
type Bridge struct {
	eng        Engine
	link       *link.Manager
	agent      Agent
	translator *events.Translator
	terrain    *terrain.Cache
	capacity   int
	interval   time.Duration
	logger     *slog.Logger

	// Owned by the Run goroutine.
	session   *Session
	keys      keyTracker
	pressed   []int
	matchCtx  context.Context //nolint:containedctx // spans the match, not a request
	matchSpan trace.Span

	// Readable from anywhere.
	sessionID atomic.Pointer[string]
	match     atomic.Int32
	frame     atomic.Int32
	matches   atomic.Int64
	reset     atomic.Bool
}

// Option configures a Bridge during construction.
type Option func(*Bridge)

// WithAgent sets the notification receiver. The default ignores everything.
func WithAgent(a Agent) Option {
	return func(b *Bridge) {
		b.agent = a
	}
}

// WithLogger sets the bridge logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// WithTerrainCache stores region analyses across runs.
func WithTerrainCache(c *terrain.Cache) Option {
	return func(b *Bridge) {
		b.terrain = c
	}
}

// WithSnapshotCapacity presizes each session's snapshot buffer.
func WithSnapshotCapacity(n int) Option {
	return func(b *Bridge) {
		b.capacity = n
	}
}

// WithRetryInterval sets the pause between connection attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(b *Bridge) {
		b.interval = d
	}
}

// New creates a bridge for eng. Nothing happens until Run.
func New(eng Engine, opts ...Option) *Bridge {
	b := &Bridge{
		eng:      eng,
		agent:    NopAgent{},
		capacity: snapshot.DefaultCapacity,
		interval: link.DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.link = link.New(eng, link.WithInterval(b.interval), link.WithLogger(b.logger))
	b.translator = events.NewTranslator(b.logger)
	matchStateGauge.Set(float64(AwaitingMatch))
	return b
}

// Link returns the connection manager.
func (b *Bridge) Link() *link.Manager { return b.link }

// Session returns the live session, nil before the first catalog load. Only
// the Run goroutine and agent callbacks may use it.
func (b *Bridge) Session() *Session { return b.session }

// MatchState returns the current match state.
func (b *Bridge) MatchState() MatchState { return MatchState(b.match.Load()) }

// Ready reports whether the link is up and a catalog is loaded.
func (b *Bridge) Ready() bool {
	return b.link.State() == link.Connected && b.sessionID.Load() != nil
}

// Status returns a snapshot of the bridge state.
func (b *Bridge) Status() Status {
	st := Status{
		Link:     b.link.State().String(),
		Match:    b.MatchState().String(),
		Frame:    b.frame.Load(),
		Matches:  b.matches.Load(),
		Attempts: b.link.Attempts(),
	}
	if id := b.sessionID.Load(); id != nil {
		st.SessionID = *id
	}
	return st
}

// RequestReset discards the session at the next tick boundary: any match is
// ended, the link is closed, and the catalog is reloaded on reconnect.
func (b *Bridge) RequestReset() {
	b.reset.Store(true)
}

// Run connects and drives the loop until ctx ends. Link failures are never
// fatal. It returns nil on cancellation.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.InfoContext(ctx, "bridge starting")
	defer b.shutdown()

	for {
		if err := b.connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for b.link.State() == link.Connected {
			if ctx.Err() != nil {
				return nil
			}
			if b.reset.Swap(false) {
				b.applyReset(ctx)
				break
			}
			if err := b.Step(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// connect blocks until the link is up and the session has a catalog.
func (b *Bridge) connect(ctx context.Context) error {
	for {
		if err := b.link.Connect(ctx); err != nil {
			return err
		}
		if b.session != nil {
			b.logger.InfoContext(ctx, "engine reconnected", "session_id", b.session.ID().String())
			return nil
		}

		cat, err := catalog.Load(ctx, b.eng, catalog.WithLogger(b.logger))
		if err != nil {
			errutil.LogErrorContext(ctx, b.logger, "catalog load failed", err)
			if cerr := b.link.Close(); cerr != nil {
				errutil.LogErrorContext(ctx, b.logger, "link close failed", cerr)
			}
			if err := sleep(ctx, b.link.Interval()); err != nil {
				return err
			}
			continue
		}

		b.session = NewSession(b.eng, cat, b.terrain, b.capacity, b.logger)
		id := b.session.ID().String()
		b.sessionID.Store(&id)
		sessionsTotal.Inc()
		b.logger.InfoContext(ctx, "session started",
			"session_id", id,
			"unit_types", cat.Len(catalog.UnitTypes),
		)
		b.agent.Connected(logging.WithSession(ctx, id), b.session)
		return nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Step runs one tick of the match lifecycle. Outside a match it advances the
// engine and watches for a match start; inside a match it runs the agent's
// turn and then advances the engine.
func (b *Bridge) Step(ctx context.Context) error {
	if b.link.State() != link.Connected || b.session == nil {
		return oops.Code(CodeLinkDown).Errorf("no live link")
	}
	switch b.MatchState() {
	case AwaitingMatch:
		if err := b.advance(ctx); err != nil {
			return err
		}
		if !b.link.Poll(ctx) {
			return nil
		}
		if b.eng.InGame() {
			return b.startMatch(ctx)
		}
		return nil
	case InMatch:
		if !b.eng.InGame() {
			return b.endMatch(ctx, outcomeFinished)
		}
		return b.tick(ctx)
	default:
		return b.setMatch(AwaitingMatch)
	}
}

// advance moves the engine one tick. Transport errors are left for the link
// poll to classify; only cancellation is returned.
func (b *Bridge) advance(ctx context.Context) error {
	if err := b.eng.Update(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.DebugContext(ctx, "engine update failed", "error", err)
	}
	return nil
}

func (b *Bridge) tick(ctx context.Context) error {
	start := time.Now()
	s, mctx := b.session, b.matchCtx

	b.agent.Refresh(mctx, s)
	for _, n := range b.translator.TranslateAll(b.eng.Events()) {
		b.agent.Event(mctx, s, n)
	}
	b.pressed = b.keys.scan(b.pressed[:0], b.eng)
	for _, code := range b.pressed {
		b.agent.KeyPressed(mctx, s, code)
	}

	err := b.advance(ctx)
	framesTotal.Inc()
	frameSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	b.frame.Store(b.eng.Frame())

	if !b.link.Poll(ctx) {
		// The match is still running on the engine side. Run reconnects and
		// the next Step decides from the engine whether it is over.
		b.logger.WarnContext(mctx, "engine link lost mid-match, reconnecting",
			"frame", b.frame.Load(),
		)
	}
	return nil
}

func (b *Bridge) setMatch(to MatchState) error {
	from := b.MatchState()
	if !MatchTransitionAllowed(from, to) {
		return ErrInvalidTransition(from, to)
	}
	b.match.Store(int32(to))
	matchStateGauge.Set(float64(to))
	return nil
}

func (b *Bridge) startMatch(ctx context.Context) error {
	if err := b.setMatch(InMatch); err != nil {
		return err
	}
	s := b.session
	s.clearTerrain()
	m := b.eng.Map()
	b.matchCtx, b.matchSpan = tracer.Start(logging.WithSession(ctx, s.ID().String()), "bridge.match",
		trace.WithAttributes(
			attribute.String("session.id", s.ID().String()),
			attribute.String("map.name", m.Name),
			attribute.Bool("match.replay", b.eng.Replay()),
		),
	)
	b.frame.Store(b.eng.Frame())
	b.logger.InfoContext(b.matchCtx, "match started",
		"map", m.Name,
		"replay", b.eng.Replay(),
	)
	b.agent.MatchStarted(b.matchCtx, s)
	return nil
}

func (b *Bridge) endMatch(ctx context.Context, outcome string) error {
	if err := b.setMatch(MatchEnded); err != nil {
		return err
	}
	mctx := b.matchCtx
	if mctx == nil {
		mctx = logging.WithSession(ctx, b.session.ID().String())
	}
	matchesTotal.WithLabelValues(outcome).Inc()
	b.matches.Add(1)
	b.logger.InfoContext(mctx, "match ended",
		"outcome", outcome,
		"frame", b.frame.Load(),
	)
	b.agent.MatchEnded(mctx, b.session)
	b.endSpan(outcome)
	return b.setMatch(AwaitingMatch)
}

func (b *Bridge) endSpan(outcome string) {
	if b.matchSpan == nil {
		return
	}
	b.matchSpan.SetAttributes(attribute.String("match.outcome", outcome))
	b.matchSpan.End()
	b.matchCtx, b.matchSpan = nil, nil
}

func (b *Bridge) applyReset(ctx context.Context) {
	if b.MatchState() == InMatch {
		if err := b.endMatch(ctx, outcomeReset); err != nil {
			errutil.LogErrorContext(ctx, b.logger, "match end on reset failed", err)
		}
	}
	if err := b.link.Close(); err != nil {
		errutil.LogErrorContext(ctx, b.logger, "link close failed", err)
	}
	b.logger.InfoContext(ctx, "session reset", "session_id", b.Status().SessionID)
	b.session = nil
	b.sessionID.Store(nil)
}

func (b *Bridge) shutdown() {
	b.endSpan("shutdown")
	if err := b.link.Close(); err != nil {
		errutil.LogError(b.logger, "link close failed", err)
	}
	b.logger.Info("bridge stopped", "matches", b.matches.Load())
}
