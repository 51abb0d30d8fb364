// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/bwbridge/internal/engine"
	"github.com/holomush/bwbridge/internal/engine/enginetest"
	"github.com/holomush/bwbridge/pkg/errutil"
)

func query(kind engine.QueryKind) engine.Query {
	return engine.Query{
		Kind:   kind,
		Unit:   engine.NoHandle,
		Target: engine.NoHandle,
		Player: engine.NoHandle,
		Type:   engine.NoType,
	}
}

func TestAsk_PathFromUnitToPositionPropagatesAnswer(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	q := query(engine.QueryPath)
	q.Unit = marine
	q.To = engine.Position{X: 900, Y: 900}

	eng.AskResult = func(engine.Query) bool { return true }
	assert.True(t, d.Ask(context.Background(), q))
	eng.AskResult = func(engine.Query) bool { return false }
	assert.False(t, d.Ask(context.Background(), q))
	assert.Len(t, eng.Queries, 2)
}

func TestAsk_PathForms(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	eng.AskResult = func(engine.Query) bool { return true }
	ctx := context.Background()

	positions := query(engine.QueryPath)
	positions.From = engine.Position{X: 1, Y: 1}
	positions.To = engine.Position{X: 2, Y: 2}
	assert.True(t, d.Ask(ctx, positions))

	units := query(engine.QueryPath)
	units.Unit, units.Target = marine, scv
	assert.True(t, d.Ask(ctx, units))

	stale := query(engine.QueryPath)
	stale.Unit, stale.Target = marine, missing
	assert.False(t, d.Ask(ctx, stale))

	targetOnly := query(engine.QueryPath)
	targetOnly.Target = scv
	assert.False(t, d.Ask(ctx, targetOnly))

	assert.Len(t, eng.Queries, 2)
}

func TestAsk_CanResearchUsesTechCatalog(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	eng.AskResult = func(engine.Query) bool { return true }
	ctx := context.Background()

	q := query(engine.QueryCanResearch)
	q.Type = enginetest.Lockdown
	assert.True(t, d.Ask(ctx, q))

	// Barracks is a unit type id, not a tech id.
	q.Type = enginetest.Barracks
	assert.False(t, d.Ask(ctx, q))

	_, err := d.ValidateQuery(q)
	errutil.AssertErrorContext(t, err, "category", "techs")
}

func TestAsk_PowerWithUnitPassesUnitType(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	eng.AskResult = func(engine.Query) bool { return true }

	q := query(engine.QueryPower)
	q.Tile = engine.TilePosition{X: 3, Y: 3}
	q.Width, q.Height = 2, 2
	q.Unit = scv

	require.True(t, d.Ask(context.Background(), q))
	require.Len(t, eng.Queries, 1)
	assert.Equal(t, enginetest.SCVType, eng.Queries[0].Type)
}

func TestAsk_PowerUnknownTypeIsCatalogMiss(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)

	q := query(engine.QueryPower)
	q.Type = enginetest.UnknownTypeID

	assert.False(t, d.Ask(context.Background(), q))
	assert.Empty(t, eng.Queries)
}

func TestAsk_RequiredTypes(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)

	for _, k := range []engine.QueryKind{engine.QueryCanBuildHere, engine.QueryCanMake, engine.QueryCanResearch, engine.QueryCanUpgrade} {
		_, err := d.ValidateQuery(query(k))
		errutil.AssertErrorCode(t, err, CodeMissingArg)
	}

	upgrade := query(engine.QueryCanUpgrade)
	upgrade.Type = enginetest.InfantryArmor
	upgrade.Unit = missing
	assert.False(t, d.Ask(context.Background(), upgrade), "stale builder")
	assert.Empty(t, eng.Queries)
}

func TestAsk_VisibleToPlayer(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	eng.AskResult = func(q engine.Query) bool { return q.Player == enginetest.EnemyPlayer }
	ctx := context.Background()

	q := query(engine.QueryVisibleToPlayer)
	q.Unit = marine
	q.Player = enginetest.EnemyPlayer
	assert.True(t, d.Ask(ctx, q))

	q.Player = 42
	assert.False(t, d.Ask(ctx, q))
	assert.Len(t, eng.Queries, 1)
}

func TestAsk_TileQueriesPassThrough(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	eng.AskResult = func(q engine.Query) bool { return q.Tile.X == 1 }

	q := query(engine.QueryBuildable)
	q.Tile = engine.TilePosition{X: 1}
	q.Flag = true
	assert.True(t, d.Ask(context.Background(), q))
	assert.True(t, eng.Queries[0].Flag)
}

func TestValidateQuery_UnknownKind(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	_, err := d.ValidateQuery(query(engine.QueryKind(99)))
	errutil.AssertErrorCode(t, err, CodeUnknownQuery)
}

func TestGameRequests(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.Draw(ctx, engine.Drawing{Kind: engine.DrawCircle, X: 10, Y: 10, X2: 5, Color: 117}))
	errutil.AssertErrorCode(t, d.Draw(ctx, engine.Drawing{Kind: 0}), CodeBadRequest)
	assert.Len(t, eng.Drawings, 1)

	require.NoError(t, d.SendText(ctx, "gg"))
	errutil.AssertErrorCode(t, d.SendText(ctx, ""), CodeMissingArg)
	assert.Equal(t, []string{"gg"}, eng.Texts)

	require.NoError(t, d.SetOption(ctx, engine.OptionLocalSpeed, 0))
	require.NoError(t, d.SetOption(ctx, engine.OptionUserInput, 1))
	errutil.AssertErrorCode(t, d.SetOption(ctx, engine.OptionPerfectInformation, 2), CodeBadRequest)
	errutil.AssertErrorCode(t, d.SetOption(ctx, engine.Option(0), 1), CodeBadRequest)
	assert.Equal(t, map[engine.Option]int32{engine.OptionLocalSpeed: 0, engine.OptionUserInput: 1}, eng.Options)

	d.LeaveGame(ctx)
	assert.True(t, eng.Left)
}

func TestLongTextIsClippedOnCharacterBoundary(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	ctx := context.Background()
	split := strings.Repeat("a", MaxTextLen-1) + "é"
	ascii := strings.Repeat("b", MaxTextLen+45)

	require.NoError(t, d.SendText(ctx, split))
	require.NoError(t, d.SendText(ctx, ascii))
	require.NoError(t, d.Draw(ctx, engine.Drawing{Kind: engine.DrawText, Text: split}))

	require.Len(t, eng.Texts, 2)
	assert.Equal(t, strings.Repeat("a", MaxTextLen-1), eng.Texts[0])
	assert.Equal(t, ascii[:MaxTextLen], eng.Texts[1])
	require.Len(t, eng.Drawings, 1)
	assert.True(t, utf8.ValidString(eng.Drawings[0].Text))
	assert.Len(t, eng.Drawings[0].Text, MaxTextLen-1)
}
