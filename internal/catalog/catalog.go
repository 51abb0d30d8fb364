// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package catalog holds the static type tables the engine reports once per
// connection: unit types, races, techs, upgrades, weapons and the id-only
// enumerations. A Catalog is owned by one session and never mutated after
// Load.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Category selects one table.
type Category uint8

// Catalog categories.
const (
	UnitTypes Category = iota
	Races
	Techs
	Upgrades
	Weapons
	UnitSizes
	Bullets
	Damages
	Explosions
	UnitCommands
	Orders

	categoryCount
)

var categoryNames = [categoryCount]string{
	UnitTypes:    "unit_types",
	Races:        "races",
	Techs:        "techs",
	Upgrades:     "upgrades",
	Weapons:      "weapons",
	UnitSizes:    "unit_sizes",
	Bullets:      "bullets",
	Damages:      "damage_types",
	Explosions:   "explosion_types",
	UnitCommands: "unit_commands",
	Orders:       "orders",
}

func (c Category) String() string {
	if c < categoryCount {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Fields returns the row width of the category.
func (c Category) Fields() int {
	switch c {
	case UnitTypes:
		return UnitTypeFields
	case Races:
		return RaceFields
	case Techs:
		return TechFields
	case Upgrades:
		return UpgradeFields
	case Weapons:
		return WeaponFields
	default:
		return NamedFields
	}
}

// Categories returns every category in table order.
func Categories() []Category {
	out := make([]Category, 0, categoryCount)
	for c := range categoryCount {
		out = append(out, c)
	}
	return out
}

// ParseCategory resolves a category by name.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return 0, false
}

// Tables is the raw catalog as the engine reports it.
type Tables struct {
	UnitTypes    []UnitType    `json:"unit_types"`
	Races        []Race        `json:"races"`
	Techs        []TechType    `json:"techs"`
	Upgrades     []UpgradeType `json:"upgrades"`
	Weapons      []WeaponType  `json:"weapons"`
	UnitSizes    []Ident       `json:"unit_sizes"`
	Bullets      []Ident       `json:"bullets"`
	Damages      []Ident       `json:"damage_types"`
	Explosions   []Ident       `json:"explosion_types"`
	UnitCommands []Ident       `json:"unit_commands"`
	Orders       []Ident       `json:"orders"`
}

// Source enumerates the engine's static tables.
type Source interface {
	LoadTables(ctx context.Context) (Tables, error)
}

type table struct {
	order []int32
	byID  map[int32]Descriptor
}

// Catalog maps category and id to descriptor.
type Catalog struct {
	tables [categoryCount]table
	logger *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for catalog misses.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = l
	}
}

// Load enumerates src and indexes every table.
func Load(ctx context.Context, src Source, opts ...Option) (*Catalog, error) {
	t, err := src.LoadTables(ctx)
	if err != nil {
		return nil, oops.Code(CodeLoadFailed).Wrapf(err, "load catalog tables")
	}
	return New(t, opts...)
}

// New indexes already enumerated tables. Duplicate ids within a category are
// rejected.
func New(t Tables, opts ...Option) (*Catalog, error) {
	c := &Catalog{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	add := func(cat Category, ds []Descriptor) error {
		tb := table{order: make([]int32, 0, len(ds)), byID: make(map[int32]Descriptor, len(ds))}
		for _, d := range ds {
			id := d.Identity().ID
			if _, dup := tb.byID[id]; dup {
				return ErrDuplicateID(cat, id)
			}
			tb.byID[id] = d
			tb.order = append(tb.order, id)
		}
		c.tables[cat] = tb
		catalogEntries.WithLabelValues(cat.String()).Set(float64(len(ds)))
		return nil
	}

	all := [categoryCount][]Descriptor{
		UnitTypes:    descriptors(t.UnitTypes),
		Races:        descriptors(t.Races),
		Techs:        descriptors(t.Techs),
		Upgrades:     descriptors(t.Upgrades),
		Weapons:      descriptors(t.Weapons),
		UnitSizes:    descriptors(t.UnitSizes),
		Bullets:      descriptors(t.Bullets),
		Damages:      descriptors(t.Damages),
		Explosions:   descriptors(t.Explosions),
		UnitCommands: descriptors(t.UnitCommands),
		Orders:       descriptors(t.Orders),
	}
	for cat, ds := range all {
		if err := add(Category(cat), ds); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func descriptors[T Descriptor](in []T) []Descriptor {
	out := make([]Descriptor, len(in))
	for i, d := range in {
		out[i] = d
	}
	return out
}

// Lookup returns the descriptor for id. An unknown id is a catalog miss:
// it is logged and counted, and the zero result is returned.
func (c *Catalog) Lookup(cat Category, id int32) (Descriptor, bool) {
	if cat >= categoryCount {
		return nil, false
	}
	d, ok := c.tables[cat].byID[id]
	if !ok {
		c.miss(cat, id)
	}
	return d, ok
}

// Has reports whether id exists in cat, counting a miss when it does not.
func (c *Catalog) Has(cat Category, id int32) bool {
	_, ok := c.Lookup(cat, id)
	return ok
}

func (c *Catalog) miss(cat Category, id int32) {
	catalogMisses.WithLabelValues(cat.String()).Inc()
	c.logger.Warn("catalog miss", "category", cat.String(), "id", id)
}

func lookup[T Descriptor](c *Catalog, cat Category, id int32) (T, bool) {
	var zero T
	d, ok := c.Lookup(cat, id)
	if !ok {
		return zero, false
	}
	v, ok := d.(T)
	return v, ok
}

// UnitType returns the unit type with the given id.
func (c *Catalog) UnitType(id int32) (UnitType, bool) { return lookup[UnitType](c, UnitTypes, id) }

// Race returns the race with the given id.
func (c *Catalog) Race(id int32) (Race, bool) { return lookup[Race](c, Races, id) }

// Tech returns the tech type with the given id.
func (c *Catalog) Tech(id int32) (TechType, bool) { return lookup[TechType](c, Techs, id) }

// Upgrade returns the upgrade type with the given id.
func (c *Catalog) Upgrade(id int32) (UpgradeType, bool) { return lookup[UpgradeType](c, Upgrades, id) }

// Weapon returns the weapon type with the given id.
func (c *Catalog) Weapon(id int32) (WeaponType, bool) { return lookup[WeaponType](c, Weapons, id) }

// Name returns the display name of an entry.
func (c *Catalog) Name(cat Category, id int32) (string, bool) {
	d, ok := c.Lookup(cat, id)
	if !ok {
		return "", false
	}
	return d.Identity().Name, true
}

// IDs returns the ids of cat in engine order. The slice must not be modified.
func (c *Catalog) IDs(cat Category) []int32 {
	if cat >= categoryCount {
		return nil
	}
	return c.tables[cat].order
}

// Len returns the number of entries in cat.
func (c *Catalog) Len(cat Category) int {
	return len(c.IDs(cat))
}

// AppendRows appends every row of cat in engine order.
func (c *Catalog) AppendRows(dst []int32, cat Category) []int32 {
	if cat >= categoryCount {
		return dst
	}
	tb := c.tables[cat]
	for _, id := range tb.order {
		dst = tb.byID[id].AppendRow(dst)
	}
	return dst
}

// AppendRequiredUnits appends (unit type, count) pairs required to build
// unitType, in catalog order.
func (c *Catalog) AppendRequiredUnits(dst []int32, unitType int32) []int32 {
	ut, ok := c.UnitType(unitType)
	if !ok {
		return dst
	}
	for _, id := range c.IDs(UnitTypes) {
		if n, req := ut.RequiredUnits[id]; req {
			dst = append(dst, id, n)
		}
	}
	return dst
}

// Match returns the descriptors of cat whose name matches a glob pattern
// such as "Terran_*".
func (c *Catalog) Match(cat Category, pattern string) ([]Descriptor, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, oops.Code(CodeBadPattern).With("pattern", pattern).Wrap(err)
	}
	var out []Descriptor
	if cat >= categoryCount {
		return out, nil
	}
	tb := c.tables[cat]
	for _, id := range tb.order {
		d := tb.byID[id]
		if g.Match(d.Identity().Name) {
			out = append(out, d)
		}
	}
	return out, nil
}
