// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package link keeps the bridge connected to the engine host. Connect blocks
// until the engine accepts a connection, retrying at a fixed interval for as
// long as the caller's context lives.
package link

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/bwbridge/internal/engine"
)

// DefaultInterval is the pause between connection attempts.
const DefaultInterval = time.Second

// Manager drives the link state machine over an engine.Link. Connect, Poll
// and Close belong to the bridge goroutine; State may be read from anywhere.
type Manager struct {
	link     engine.Link
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	state    atomic.Int32
	attempts atomic.Int64
	since    atomic.Int64
}

// Option configures a Manager during construction.
type Option func(*Manager)

// WithInterval sets the pause between attempts. Non-positive values keep the
// default.
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger sets the logger for connection progress.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// New creates a disconnected manager.
func New(l engine.Link, opts ...Option) *Manager {
	m := &Manager{
		link:     l,
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.setState(Disconnected)
	return m
}

// State returns the current link state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Attempts returns the number of connection attempts made so far.
func (m *Manager) Attempts() int64 {
	return m.attempts.Load()
}

// Since returns when the link entered its current state.
func (m *Manager) Since() time.Time {
	return time.Unix(0, m.since.Load())
}

// Interval returns the pause between attempts.
func (m *Manager) Interval() time.Duration {
	return m.interval
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
	m.since.Store(time.Now().UnixNano())
	stateGauge.Set(float64(s))
}

func (m *Manager) transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.State()
	if !TransitionAllowed(from, to) {
		return ErrInvalidTransition(from, to)
	}
	m.setState(to)
	return nil
}

// Connect blocks until the engine accepts a connection. Failed attempts are
// retried every interval with no cap. It returns early only when ctx ends,
// leaving the manager Disconnected.
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.transition(Connecting); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "connecting to engine", "interval", m.interval)

	failures := 0
	err := retry.Do(ctx, retry.NewConstant(m.interval), func(ctx context.Context) error {
		n := m.attempts.Add(1)
		if err := m.link.Connect(ctx); err != nil {
			attemptsTotal.WithLabelValues(resultFailure).Inc()
			failures++
			if failures == 1 {
				m.logger.WarnContext(ctx, "engine not reachable, retrying", "attempt", n, "error", err)
			} else {
				m.logger.DebugContext(ctx, "engine connection attempt failed", "attempt", n, "error", err)
			}
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		attemptsTotal.WithLabelValues(resultSuccess).Inc()
		return nil
	})
	if err != nil {
		_ = m.transition(Disconnected)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return oops.Code("LINK_CANCELLED").With("attempts", m.Attempts()).Wrap(ctxErr)
		}
		return oops.Code("LINK_CONNECT_FAILED").Wrap(err)
	}
	if err := m.transition(Connected); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "engine connected", "failed_attempts", failures)
	return nil
}

// Poll checks the link after an engine update and reports whether it is
// still live. A dropped link moves the manager to Disconnected.
func (m *Manager) Poll(ctx context.Context) bool {
	if m.link.Connected() {
		return true
	}
	if m.State() == Connected {
		if err := m.transition(Disconnected); err == nil {
			dropsTotal.Inc()
			m.logger.WarnContext(ctx, "engine link lost")
		}
	}
	return false
}

// Close shuts the link down and moves the manager to Disconnected.
func (m *Manager) Close() error {
	if m.State() != Disconnected {
		_ = m.transition(Disconnected)
	}
	if err := m.link.Close(); err != nil {
		return oops.Code("LINK_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
