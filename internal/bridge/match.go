// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bridge

import (
	"fmt"

	"github.com/samber/oops"
)

// MatchState is where the bridge is in the match lifecycle.
type MatchState int32

// Match states.
const (
	AwaitingMatch MatchState = iota
	InMatch
	MatchEnded
)

var matchStateNames = [...]string{"awaiting_match", "in_match", "match_ended"}

func (s MatchState) String() string {
	if s >= 0 && int(s) < len(matchStateNames) {
		return matchStateNames[s]
	}
	return fmt.Sprintf("match_state(%d)", int32(s))
}

// CodeInvalidTransition marks a match state change the lifecycle does not
// allow.
const CodeInvalidTransition = "INVALID_TRANSITION"

// MatchTransitionAllowed reports whether the match lifecycle may move from
// one state to another.
func MatchTransitionAllowed(from, to MatchState) bool {
	switch from {
	case AwaitingMatch:
		return to == InMatch
	case InMatch:
		return to == MatchEnded
	case MatchEnded:
		return to == AwaitingMatch
	default:
		return false
	}
}

// ErrInvalidTransition creates an error for a disallowed match state change.
func ErrInvalidTransition(from, to MatchState) error {
	return oops.Code(CodeInvalidTransition).
		With("from", from.String()).
		With("to", to.String()).
		Errorf("match cannot move from %s to %s", from, to)
}
