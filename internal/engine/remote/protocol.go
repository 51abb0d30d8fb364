// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package remote

import (
	"github.com/holomush/bwbridge/internal/engine"
)

// Requests on the engine link. Hello, update, tables, terrain, order and
// query are each answered with exactly one envelope before the host reads
// the next request; the rest are not answered.
const (
	MsgHello     = "hello"
	MsgUpdate    = "update"
	MsgTables    = "tables"
	MsgTerrain   = "terrain"
	MsgOrder     = "order"
	MsgQuery     = "query"
	MsgDraw      = "draw"
	MsgSendText  = "send_text"
	MsgSetOption = "set_option"
	MsgLeaveGame = "leave_game"
)

// Replies from the host.
const (
	MsgWelcome = "welcome"
	MsgFrame   = "frame"
	MsgResult  = "result"
	MsgError   = "error"
)

// Hello opens the link.
type Hello struct {
	Client  string `json:"client"`
	Version string `json:"version"`
}

// Welcome accepts the link.
type Welcome struct {
	Engine string `json:"engine"`
}

// FrameState is everything the host reports after advancing one tick. Map is
// only sent when it changed since the previous frame.
type FrameState struct {
	InGame                 bool              `json:"in_game"`
	Replay                 bool              `json:"replay"`
	Frame                  int32             `json:"frame"`
	ReplayFrameTotal       int32             `json:"replay_frame_total"`
	RemainingLatencyFrames int32             `json:"remaining_latency_frames"`
	LastError              int32             `json:"last_error"`
	Self                   *engine.Handle    `json:"self,omitempty"`
	Events                 []engine.RawEvent `json:"events,omitempty"`
	Keys                   []int             `json:"keys,omitempty"`
	Players                []engine.Player   `json:"players,omitempty"`
	Units                  []engine.Unit     `json:"units,omitempty"`
	Map                    *engine.Map       `json:"map,omitempty"`
}

// Result answers an order or a query.
type Result struct {
	OK bool `json:"ok"`
}

// HostError is the host's refusal of a request.
type HostError struct {
	Message string `json:"message"`
}

// OptionValue changes one game setting.
type OptionValue struct {
	Option engine.Option `json:"option"`
	Value  int32         `json:"value"`
}

// Text is a chat line.
type Text struct {
	Text string `json:"text"`
}
