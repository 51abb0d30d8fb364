// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package command validates agent requests against the live frame and the
// catalog before forwarding them to the engine. A request naming a handle
// that is not live, a type id the catalog lacks, or an argument shape the
// action does not take is refused without any engine side effect.
package command

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
)

var tracer = otel.Tracer("bwbridge/command")

// Command is one unit order from the agent. Target, Position and Tile are
// read according to Shape; Type is read by actions that take a type id and
// Slot by cancel_train.
type Command struct {
	Unit     engine.Handle
	Action   engine.Action
	Shape    engine.Shape
	Target   engine.Handle
	Position engine.Position
	Tile     engine.TilePosition
	Type     int32
	Slot     int32
}

// World resolves handles against the current frame.
type World interface {
	Unit(h engine.Handle) (engine.Unit, bool)
	Player(h engine.Handle) (engine.Player, bool)
}

// Dispatcher validates and forwards commands and queries.
type Dispatcher struct {
	world    World
	catalog  *catalog.Catalog
	actuator engine.Actuator
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for refused requests.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a dispatcher over one session's frame, catalog and
// engine.
func NewDispatcher(world World, cat *catalog.Catalog, act engine.Actuator, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		world:    world,
		catalog:  cat,
		actuator: act,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Validate resolves every reference in cmd and returns the engine order.
func (d *Dispatcher) Validate(cmd Command) (engine.Order, error) {
	r, ok := actionRules[cmd.Action]
	if !ok {
		return engine.Order{}, ErrUnknownAction(cmd.Action)
	}
	if !r.allows(cmd.Shape) {
		return engine.Order{}, ErrBadShape(cmd.Action, cmd.Shape)
	}
	if _, ok := d.world.Unit(cmd.Unit); !ok {
		return engine.Order{}, ErrStaleHandle("unit", cmd.Unit)
	}
	order := engine.Order{
		Unit:   cmd.Unit,
		Action: cmd.Action,
		Shape:  cmd.Shape,
		Target: engine.NoHandle,
		Type:   engine.NoType,
	}
	switch cmd.Shape {
	case engine.ShapeUnit:
		if _, ok := d.world.Unit(cmd.Target); !ok {
			return engine.Order{}, ErrStaleHandle("target", cmd.Target)
		}
		order.Target = cmd.Target
	case engine.ShapePosition:
		order.Position = cmd.Position
	case engine.ShapeTile:
		order.Tile = cmd.Tile
	}
	if r.typed {
		if !d.catalog.Has(r.category, cmd.Type) {
			return engine.Order{}, ErrCatalogMiss(r.category, cmd.Type)
		}
		order.Type = cmd.Type
	}
	if r.slot {
		order.Slot = cmd.Slot
	}
	return order, nil
}

// Dispatch forwards cmd when it validates and reports whether the engine
// accepted it. Refused commands never reach the engine.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) bool {
	_, span := tracer.Start(ctx, "command.dispatch",
		trace.WithAttributes(
			attribute.String("command.action", cmd.Action.String()),
			attribute.Int("command.unit", int(cmd.Unit)),
		),
	)
	defer span.End()

	order, err := d.Validate(cmd)
	if err != nil {
		status := statusOf(err)
		span.SetAttributes(attribute.String("command.status", status))
		RecordCommand(cmd.Action.String(), status)
		d.logger.DebugContext(ctx, "command refused",
			"action", cmd.Action.String(),
			"unit", int32(cmd.Unit),
			"status", status,
			"error", err,
		)
		return false
	}

	accepted := d.actuator.Issue(order)
	status := StatusOK
	if !accepted {
		status = StatusRejected
	}
	span.SetAttributes(attribute.String("command.status", status))
	RecordCommand(cmd.Action.String(), status)
	return accepted
}
