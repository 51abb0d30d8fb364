// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
)

// ValidateQuery resolves every reference in q. Handles must be live and type
// ids must exist in the category the predicate reads. For has_power with a
// unit, the unit's own type is substituted.
func (d *Dispatcher) ValidateQuery(q engine.Query) (engine.Query, error) {
	switch q.Kind {
	case engine.QueryVisible, engine.QueryExplored, engine.QueryBuildable, engine.QueryCreep:
		return q, nil

	case engine.QueryPower, engine.QueryPowerPrecise:
		if q.Unit.Valid() {
			u, ok := d.world.Unit(q.Unit)
			if !ok {
				return q, ErrStaleHandle("unit", q.Unit)
			}
			q.Type = u.Type
			return q, nil
		}
		return q, d.optionalType(catalog.UnitTypes, q.Type)

	case engine.QueryPath:
		if q.Unit.Valid() {
			if _, ok := d.world.Unit(q.Unit); !ok {
				return q, ErrStaleHandle("unit", q.Unit)
			}
		}
		if q.Target.Valid() {
			if !q.Unit.Valid() {
				return q, ErrMissingArg(q.Kind.String(), "unit")
			}
			if _, ok := d.world.Unit(q.Target); !ok {
				return q, ErrStaleHandle("target", q.Target)
			}
		}
		return q, nil

	case engine.QueryCanBuildHere, engine.QueryCanMake:
		if err := d.optionalUnit(q.Unit); err != nil {
			return q, err
		}
		return q, d.requiredType(q.Kind, catalog.UnitTypes, q.Type)

	case engine.QueryCanResearch:
		if err := d.optionalUnit(q.Unit); err != nil {
			return q, err
		}
		return q, d.requiredType(q.Kind, catalog.Techs, q.Type)

	case engine.QueryCanUpgrade:
		if err := d.optionalUnit(q.Unit); err != nil {
			return q, err
		}
		return q, d.requiredType(q.Kind, catalog.Upgrades, q.Type)

	case engine.QueryVisibleToPlayer:
		if _, ok := d.world.Unit(q.Unit); !ok {
			return q, ErrStaleHandle("unit", q.Unit)
		}
		if _, ok := d.world.Player(q.Player); !ok {
			return q, ErrStaleHandle("player", q.Player)
		}
		return q, nil

	default:
		return q, ErrUnknownQuery(q.Kind)
	}
}

func (d *Dispatcher) optionalUnit(h engine.Handle) error {
	if !h.Valid() {
		return nil
	}
	if _, ok := d.world.Unit(h); !ok {
		return ErrStaleHandle("unit", h)
	}
	return nil
}

func (d *Dispatcher) optionalType(cat catalog.Category, id int32) error {
	if id == engine.NoType {
		return nil
	}
	if !d.catalog.Has(cat, id) {
		return ErrCatalogMiss(cat, id)
	}
	return nil
}

func (d *Dispatcher) requiredType(k engine.QueryKind, cat catalog.Category, id int32) error {
	if id == engine.NoType {
		return ErrMissingArg(k.String(), "type")
	}
	return d.optionalType(cat, id)
}

// Ask evaluates q in the engine when it validates and returns the engine's
// answer. Refused queries answer false.
func (d *Dispatcher) Ask(ctx context.Context, q engine.Query) bool {
	_, span := tracer.Start(ctx, "command.query",
		trace.WithAttributes(attribute.String("query.kind", q.Kind.String())),
	)
	defer span.End()

	valid, err := d.ValidateQuery(q)
	if err != nil {
		status := statusOf(err)
		span.SetAttributes(attribute.String("query.status", status))
		RecordQuery(q.Kind.String(), status)
		d.logger.DebugContext(ctx, "query refused",
			"query", q.Kind.String(),
			"status", status,
			"error", err,
		)
		return false
	}

	answer := d.actuator.Ask(valid)
	RecordQuery(q.Kind.String(), StatusOK)
	return answer
}
