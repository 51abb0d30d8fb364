// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

import "fmt"

// EventKind numbers events the way the engine does.
type EventKind int32

// Event kinds in engine order.
const (
	EventMatchStart EventKind = iota
	EventMatchEnd
	EventMatchFrame
	EventMenuFrame
	EventSendText
	EventReceiveText
	EventPlayerLeft
	EventNukeDetect
	EventUnitDiscover
	EventUnitEvade
	EventUnitShow
	EventUnitHide
	EventUnitCreate
	EventUnitDestroy
	EventUnitMorph
	EventUnitRenegade
	EventSaveGame
	EventUnitComplete
	EventPlayerDropped
	EventNone
)

var eventKindNames = [...]string{
	EventMatchStart:    "match_start",
	EventMatchEnd:      "match_end",
	EventMatchFrame:    "match_frame",
	EventMenuFrame:     "menu_frame",
	EventSendText:      "send_text",
	EventReceiveText:   "receive_text",
	EventPlayerLeft:    "player_left",
	EventNukeDetect:    "nuke_detect",
	EventUnitDiscover:  "unit_discover",
	EventUnitEvade:     "unit_evade",
	EventUnitShow:      "unit_show",
	EventUnitHide:      "unit_hide",
	EventUnitCreate:    "unit_create",
	EventUnitDestroy:   "unit_destroy",
	EventUnitMorph:     "unit_morph",
	EventUnitRenegade:  "unit_renegade",
	EventSaveGame:      "save_game",
	EventUnitComplete:  "unit_complete",
	EventPlayerDropped: "player_dropped",
	EventNone:          "none",
}

// String returns the snake_case name of the kind.
func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", int32(k))
}

// Known reports whether k is one of the defined kinds.
func (k EventKind) Known() bool {
	return k >= EventMatchStart && k <= EventNone
}

// Event is one entry of the engine's per-frame event queue.
// The set of implementations is closed.
type Event interface {
	Kind() EventKind
	sealed()
}

// Signal is an event without payload: match start, match frame, menu frame
// and none.
type Signal struct {
	Type EventKind
}

// MatchEnd closes a match.
type MatchEnd struct {
	Winner bool
}

// TextEvent carries text: send text, receive text and save game.
type TextEvent struct {
	Type EventKind
	Text string
}

// PlayerEvent refers to a player: player left and player dropped.
type PlayerEvent struct {
	Type   EventKind
	Player Handle
}

// NukeDetect reports a nuclear launch. Known is false when the target
// position was not revealed.
type NukeDetect struct {
	At    Position
	Known bool
}

// UnitEvent refers to a unit: discover, evade, show, hide, create, destroy,
// morph, renegade and complete.
type UnitEvent struct {
	Type EventKind
	Unit Handle
}

// Unknown is an event whose kind the bridge does not recognise.
type Unknown struct {
	Code EventKind
}

func (e Signal) Kind() EventKind      { return e.Type }
func (MatchEnd) Kind() EventKind      { return EventMatchEnd }
func (e TextEvent) Kind() EventKind   { return e.Type }
func (e PlayerEvent) Kind() EventKind { return e.Type }
func (NukeDetect) Kind() EventKind    { return EventNukeDetect }
func (e UnitEvent) Kind() EventKind   { return e.Type }
func (e Unknown) Kind() EventKind     { return e.Code }

func (Signal) sealed()      {}
func (MatchEnd) sealed()    {}
func (TextEvent) sealed()   {}
func (PlayerEvent) sealed() {}
func (NukeDetect) sealed()  {}
func (UnitEvent) sealed()   {}
func (Unknown) sealed()     {}

// RawEvent is the flat form an engine host sends over the wire.
type RawEvent struct {
	Kind   EventKind `json:"kind"`
	Winner bool      `json:"winner,omitempty"`
	Text   string    `json:"text,omitempty"`
	Player Handle    `json:"player,omitempty"`
	Unit   Handle    `json:"unit,omitempty"`
	X      int32     `json:"x,omitempty"`
	Y      int32     `json:"y,omitempty"`
	Known  bool      `json:"known,omitempty"`
}

// Event converts the raw form into its typed variant. Kinds outside the
// known range become Unknown.
func (r RawEvent) Event() Event {
	switch r.Kind {
	case EventMatchStart, EventMatchFrame, EventMenuFrame, EventNone:
		return Signal{Type: r.Kind}
	case EventMatchEnd:
		return MatchEnd{Winner: r.Winner}
	case EventSendText, EventReceiveText, EventSaveGame:
		return TextEvent{Type: r.Kind, Text: r.Text}
	case EventPlayerLeft, EventPlayerDropped:
		return PlayerEvent{Type: r.Kind, Player: r.Player}
	case EventNukeDetect:
		return NukeDetect{At: Position{X: r.X, Y: r.Y}, Known: r.Known}
	case EventUnitDiscover, EventUnitEvade, EventUnitShow, EventUnitHide,
		EventUnitCreate, EventUnitDestroy, EventUnitMorph, EventUnitRenegade,
		EventUnitComplete:
		return UnitEvent{Type: r.Kind, Unit: r.Unit}
	default:
		return Unknown{Code: r.Kind}
	}
}

// Raw flattens a typed event back into its wire form.
func Raw(ev Event) RawEvent {
	raw := RawEvent{Kind: ev.Kind()}
	switch e := ev.(type) {
	case MatchEnd:
		raw.Winner = e.Winner
	case TextEvent:
		raw.Text = e.Text
	case PlayerEvent:
		raw.Player = e.Player
	case NukeDetect:
		raw.X, raw.Y, raw.Known = e.At.X, e.At.Y, e.Known
	case UnitEvent:
		raw.Unit = e.Unit
	}
	return raw
}
