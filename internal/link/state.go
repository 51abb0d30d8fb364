// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package link

import (
	"fmt"

	"github.com/samber/oops"
)

// State is the link lifecycle position.
type State int32

// Link states.
const (
	Disconnected State = iota
	Connecting
	Connected
)

var stateNames = [...]string{"disconnected", "connecting", "connected"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// CodeInvalidTransition marks a state change the lifecycle does not allow.
const CodeInvalidTransition = "INVALID_TRANSITION"

// TransitionAllowed reports whether the link may move from one state to
// another. A dropped link always goes through Disconnected before the next
// attempt.
func TransitionAllowed(from, to State) bool {
	switch from {
	case Disconnected:
		return to == Connecting
	case Connecting:
		return to == Connected || to == Disconnected
	case Connected:
		return to == Disconnected
	default:
		return false
	}
}

// ErrInvalidTransition creates an error for a disallowed state change.
func ErrInvalidTransition(from, to State) error {
	return oops.Code(CodeInvalidTransition).
		With("from", from.String()).
		With("to", to.String()).
		Errorf("link cannot move from %s to %s", from, to)
}
