// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bridge

import (
	"context"

	"github.com/holomush/bwbridge/internal/events"
)

// Agent receives the bridge's notifications. Every method is called on the
// bridge goroutine and blocks the loop until it returns; the session's
// encoder and dispatcher may be used freely for the duration of the call.
type Agent interface {
	// Connected runs once per session, after the catalog has loaded.
	Connected(ctx context.Context, s *Session)
	// MatchStarted runs when the engine enters a match.
	MatchStarted(ctx context.Context, s *Session)
	// Refresh runs at the start of every in-match tick, before events.
	Refresh(ctx context.Context, s *Session)
	// Event runs once per engine event, in engine order.
	Event(ctx context.Context, s *Session, n events.Notification)
	// KeyPressed runs for every key that went down since the previous tick.
	KeyPressed(ctx context.Context, s *Session, code int)
	// MatchEnded runs when the match is over or its link was lost.
	MatchEnded(ctx context.Context, s *Session)
}

// NopAgent ignores every notification.
type NopAgent struct{}

// Connected implements Agent.
func (NopAgent) Connected(context.Context, *Session) {}

// MatchStarted implements Agent.
func (NopAgent) MatchStarted(context.Context, *Session) {}

// Refresh implements Agent.
func (NopAgent) Refresh(context.Context, *Session) {}

// Event implements Agent.
func (NopAgent) Event(context.Context, *Session, events.Notification) {}

// KeyPressed implements Agent.
func (NopAgent) KeyPressed(context.Context, *Session, int) {}

// MatchEnded implements Agent.
func (NopAgent) MatchEnded(context.Context, *Session) {}

var _ Agent = NopAgent{}
