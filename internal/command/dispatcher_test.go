// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
	"github.com/holomush/bwbridge/internal/engine/enginetest"
	"github.com/holomush/bwbridge/pkg/errutil"
)

const (
	marine  = engine.Handle(5)
	scv     = engine.Handle(6)
	missing = engine.Handle(404)
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *enginetest.Engine, *bytes.Buffer) {
	t.Helper()
	scvUnit := enginetest.Marine(scv, 64, 64)
	scvUnit.Type = enginetest.SCVType
	eng := enginetest.New(enginetest.Frame{
		InGame:  true,
		Players: enginetest.SamplePlayers(),
		Units:   []engine.Unit{enginetest.Marine(marine, 32, 32), scvUnit},
	})
	eng.Tables = enginetest.SampleTables()
	ctx := context.Background()
	require.NoError(t, eng.Connect(ctx))
	require.NoError(t, eng.Update(ctx))

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cat, err := catalog.Load(ctx, eng, catalog.WithLogger(logger))
	require.NoError(t, err)
	return NewDispatcher(eng, cat, eng, WithLogger(logger)), eng, &buf
}

func TestDispatch_ForwardsValidOrders(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	ctx := context.Background()

	assert.True(t, d.Dispatch(ctx, Command{Unit: marine, Action: engine.ActionMove, Shape: engine.ShapePosition,
		Position: engine.Position{X: 100, Y: 200}}))
	assert.True(t, d.Dispatch(ctx, Command{Unit: marine, Action: engine.ActionAttack, Shape: engine.ShapeUnit, Target: scv}))
	assert.True(t, d.Dispatch(ctx, Command{Unit: scv, Action: engine.ActionBuild, Shape: engine.ShapeTile,
		Tile: engine.TilePosition{X: 10, Y: 12}, Type: enginetest.Barracks}))
	assert.True(t, d.Dispatch(ctx, Command{Unit: marine, Action: engine.ActionStop}))

	require.Len(t, eng.Orders, 4)
	assert.Equal(t, engine.Order{Unit: marine, Action: engine.ActionMove, Shape: engine.ShapePosition,
		Target: engine.NoHandle, Position: engine.Position{X: 100, Y: 200}, Type: engine.NoType}, eng.Orders[0])
	assert.Equal(t, scv, eng.Orders[1].Target)
	assert.Equal(t, enginetest.Barracks, eng.Orders[2].Type)
	assert.Equal(t, engine.TilePosition{X: 10, Y: 12}, eng.Orders[2].Tile)
}

func TestDispatch_StaleHandleHasNoSideEffect(t *testing.T) {
	d, eng, buf := newTestDispatcher(t)
	before := testutil.ToFloat64(CommandsTotal.WithLabelValues("attack", StatusStaleHandle))

	assert.False(t, d.Dispatch(context.Background(), Command{Unit: missing, Action: engine.ActionStop}))
	assert.False(t, d.Dispatch(context.Background(), Command{Unit: marine, Action: engine.ActionAttack,
		Shape: engine.ShapeUnit, Target: missing}))

	assert.Empty(t, eng.Orders)
	assert.Equal(t, before+1, testutil.ToFloat64(CommandsTotal.WithLabelValues("attack", StatusStaleHandle)))
	assert.Contains(t, buf.String(), "command refused")
	assert.NotContains(t, buf.String(), "catalog miss", "stale handles are not catalog misses")
}

func TestDispatch_CatalogMiss(t *testing.T) {
	d, eng, buf := newTestDispatcher(t)

	ok := d.Dispatch(context.Background(), Command{Unit: marine, Action: engine.ActionTrain, Type: enginetest.UnknownTypeID})

	assert.False(t, ok)
	assert.Empty(t, eng.Orders)
	assert.Contains(t, buf.String(), "catalog miss")
}

func TestDispatch_TypeMustResolveInActionCategory(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	ctx := context.Background()

	// Lockdown (tech 1) is not an upgrade id.
	assert.False(t, d.Dispatch(ctx, Command{Unit: marine, Action: engine.ActionUpgrade, Type: enginetest.Lockdown}))
	assert.True(t, d.Dispatch(ctx, Command{Unit: marine, Action: engine.ActionResearch, Type: enginetest.Lockdown}))
	assert.True(t, d.Dispatch(ctx, Command{Unit: marine, Action: engine.ActionUseTech, Shape: engine.ShapeUnit,
		Target: scv, Type: enginetest.Lockdown}))
	assert.Len(t, eng.Orders, 2)
}

func TestDispatch_ShapeTable(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	ctx := context.Background()

	tests := []struct {
		action engine.Action
		shape  engine.Shape
		want   bool
	}{
		{engine.ActionMove, engine.ShapeUnit, false},
		{engine.ActionMove, engine.ShapeNone, false},
		{engine.ActionFollow, engine.ShapePosition, false},
		{engine.ActionFollow, engine.ShapeUnit, true},
		{engine.ActionUnloadAll, engine.ShapeNone, true},
		{engine.ActionUnloadAll, engine.ShapePosition, true},
		{engine.ActionUnloadAll, engine.ShapeUnit, false},
		{engine.ActionLand, engine.ShapeTile, true},
		{engine.ActionLand, engine.ShapePosition, false},
		{engine.ActionStop, engine.ShapePosition, false},
		{engine.ActionRightClick, engine.ShapePosition, true},
		{engine.ActionRightClick, engine.ShapeTile, false},
	}
	for _, tt := range tests {
		cmd := Command{Unit: marine, Action: tt.action, Shape: tt.shape, Target: scv}
		assert.Equal(t, tt.want, d.Dispatch(ctx, cmd), "%s with %s", tt.action, tt.shape)
	}

	accepted := 0
	for _, tt := range tests {
		if tt.want {
			accepted++
		}
	}
	assert.Len(t, eng.Orders, accepted)
}

func TestDispatch_UseTechShapes(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	for _, shape := range []engine.Shape{engine.ShapeNone, engine.ShapePosition, engine.ShapeUnit} {
		cmd := Command{Unit: marine, Action: engine.ActionUseTech, Shape: shape, Target: scv, Type: enginetest.StimPacks}
		assert.True(t, d.Dispatch(ctx, cmd), shape.String())
	}
	assert.False(t, d.Dispatch(ctx, Command{Unit: marine, Action: engine.ActionUseTech, Shape: engine.ShapeTile,
		Type: enginetest.StimPacks}))
}

func TestDispatch_CancelTrainCarriesSlot(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)

	require.True(t, d.Dispatch(context.Background(), Command{Unit: marine, Action: engine.ActionCancelTrain, Slot: 2}))
	assert.Equal(t, int32(2), eng.Orders[0].Slot)

	require.True(t, d.Dispatch(context.Background(), Command{Unit: marine, Action: engine.ActionStop, Slot: 2}))
	assert.Zero(t, eng.Orders[1].Slot, "slot is dropped for other actions")
}

func TestDispatch_EngineRejection(t *testing.T) {
	d, eng, _ := newTestDispatcher(t)
	eng.Reject = true
	before := testutil.ToFloat64(CommandsTotal.WithLabelValues("stop", StatusRejected))

	assert.False(t, d.Dispatch(context.Background(), Command{Unit: marine, Action: engine.ActionStop}))
	assert.Len(t, eng.Orders, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(CommandsTotal.WithLabelValues("stop", StatusRejected)))
}

func TestValidate_ErrorCodes(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	_, err := d.Validate(Command{Unit: marine, Action: engine.Action(200)})
	errutil.AssertErrorCode(t, err, CodeUnknownAction)

	_, err = d.Validate(Command{Unit: marine, Action: engine.ActionMove})
	errutil.AssertErrorCode(t, err, CodeBadShape)
	errutil.AssertErrorContext(t, err, "shape", "none")

	_, err = d.Validate(Command{Unit: missing, Action: engine.ActionStop})
	errutil.AssertErrorCode(t, err, CodeStaleHandle)
	errutil.AssertErrorContext(t, err, "role", "unit")

	_, err = d.Validate(Command{Unit: marine, Action: engine.ActionMorph, Type: enginetest.UnknownTypeID})
	errutil.AssertErrorCode(t, err, CodeCatalogMiss)
	errutil.AssertErrorContext(t, err, "category", "unit_types")
}

func TestShapesAndTypeCategory(t *testing.T) {
	assert.Equal(t, []engine.Shape{engine.ShapePosition, engine.ShapeUnit}, Shapes(engine.ActionAttack))
	assert.Nil(t, Shapes(engine.Action(0)))

	cat, ok := TypeCategory(engine.ActionUpgrade)
	require.True(t, ok)
	assert.Equal(t, catalog.Upgrades, cat)
	_, ok = TypeCategory(engine.ActionMove)
	assert.False(t, ok)

	for _, a := range engine.Actions() {
		assert.NotEmpty(t, Shapes(a), "every action has a rule: %s", a)
	}
}
