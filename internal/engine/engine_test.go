// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawEvent_EventVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  RawEvent
		want Event
	}{
		{"match start", RawEvent{Kind: EventMatchStart}, Signal{Type: EventMatchStart}},
		{"match end winner", RawEvent{Kind: EventMatchEnd, Winner: true}, MatchEnd{Winner: true}},
		{"receive text", RawEvent{Kind: EventReceiveText, Text: "gl hf"}, TextEvent{Type: EventReceiveText, Text: "gl hf"}},
		{"save game", RawEvent{Kind: EventSaveGame, Text: "slot1"}, TextEvent{Type: EventSaveGame, Text: "slot1"}},
		{"player dropped", RawEvent{Kind: EventPlayerDropped, Player: 3}, PlayerEvent{Type: EventPlayerDropped, Player: 3}},
		{"nuke unknown", RawEvent{Kind: EventNukeDetect}, NukeDetect{}},
		{"nuke known", RawEvent{Kind: EventNukeDetect, X: 10, Y: 20, Known: true}, NukeDetect{At: Position{10, 20}, Known: true}},
		{"unit morph", RawEvent{Kind: EventUnitMorph, Unit: 42}, UnitEvent{Type: EventUnitMorph, Unit: 42}},
		{"none", RawEvent{Kind: EventNone}, Signal{Type: EventNone}},
		{"future kind", RawEvent{Kind: 77, Unit: 5}, Unknown{Code: 77}},
		{"negative kind", RawEvent{Kind: -1}, Unknown{Code: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.raw.Event()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.raw.Kind, got.Kind())
		})
	}
}

func TestRaw_RoundTripsKnownKinds(t *testing.T) {
	for k := EventMatchStart; k <= EventNone; k++ {
		raw := RawEvent{Kind: k, Unit: 7, Player: 2, Text: "x", Winner: true, X: 1, Y: 2, Known: true}
		ev := raw.Event()
		require.NotEqual(t, Unknown{Code: k}, ev, "kind %s decoded as unknown", k)
		assert.Equal(t, ev, Raw(ev).Event(), "kind %s", k)
	}
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "match_start", EventMatchStart.String())
	assert.Equal(t, "player_dropped", EventPlayerDropped.String())
	assert.Equal(t, "unknown(99)", EventKind(99).String())
	assert.True(t, EventNone.Known())
	assert.False(t, EventKind(20).Known())
}

func TestUnitFlags_OneBitPerState(t *testing.T) {
	assert.Equal(t, UnitFlags(1)<<UnitFlagCount, flagSentinel)
	assert.Equal(t, UnitFlags(1), FlagExists)
	assert.Equal(t, UnitFlags(1)<<(UnitFlagCount-1), FlagVisible)

	f := FlagIdle | FlagCompleted
	assert.True(t, f.Has(FlagIdle))
	assert.True(t, f.Has(FlagIdle|FlagCompleted))
	assert.False(t, f.Has(FlagIdle|FlagMoving))
}

func TestNewUnit_ReferencesAbsent(t *testing.T) {
	u := NewUnit(9)
	assert.Equal(t, Handle(9), u.Handle)
	for _, h := range []Handle{u.Player, u.LastAttackingPlayer, u.BuildUnit, u.Target, u.OrderTarget,
		u.RallyUnit, u.Addon, u.NydusExit, u.Transport, u.Carrier, u.Hatchery, u.PowerUp} {
		assert.Equal(t, NoHandle, h)
	}
	assert.False(t, NoHandle.Valid())
	assert.True(t, Handle(0).Valid())
}

func TestUnit_UnmarshalKeepsOmittedReferencesAbsent(t *testing.T) {
	var u Unit
	require.NoError(t, json.Unmarshal([]byte(`{"handle":3,"type":0,"target":7,"loaded_units":[8]}`), &u))

	want := NewUnit(3)
	want.Target = 7
	want.LoadedUnits = []Handle{8}
	assert.Equal(t, want, u)
}

func TestUnit_UnmarshalRejectsMalformed(t *testing.T) {
	var u Unit
	assert.Error(t, json.Unmarshal([]byte(`{"handle":"three"}`), &u))
}

func TestParseAction_AllNamesResolve(t *testing.T) {
	actions := Actions()
	require.Len(t, actions, len(actionNames))
	for _, a := range actions {
		got, ok := ParseAction(a.String())
		require.True(t, ok, "action %d", a)
		assert.Equal(t, a, got)
	}
	_, ok := ParseAction("dance")
	assert.False(t, ok)
}

func TestParseShape(t *testing.T) {
	s, ok := ParseShape("")
	assert.True(t, ok)
	assert.Equal(t, ShapeNone, s)

	s, ok = ParseShape("unit")
	assert.True(t, ok)
	assert.Equal(t, ShapeUnit, s)

	_, ok = ParseShape("cone")
	assert.False(t, ok)
}

func TestParseQueryKind(t *testing.T) {
	for k, name := range queryNames {
		got, ok := ParseQueryKind(name)
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseQueryKind("is_fun")
	assert.False(t, ok)
}

func TestPlayer_Reportable(t *testing.T) {
	assert.False(t, Player{Type: PlayerTypeNone}.Reportable())
	assert.True(t, Player{Type: PlayerTypeComputer}.Reportable())
}
