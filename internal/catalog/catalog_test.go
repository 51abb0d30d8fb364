// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package catalog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/holomush/bwbridge/pkg/errutil"
)

type stubSource struct {
	tables Tables
	err    error
}

func (s stubSource) LoadTables(context.Context) (Tables, error) {
	return s.tables, s.err
}

func sampleTables() Tables {
	return Tables{
		UnitTypes: []UnitType{
			{Ident: Ident{ID: 0, Name: "Terran_Marine"}, Race: 1, MaxHitPoints: 40, TopSpeed: 4.0, Flags: CanAttack | CanMove | Organic},
			{Ident: Ident{ID: 7, Name: "Terran_SCV"}, Race: 1, Flags: Worker | CanMove},
			{Ident: Ident{ID: 106, Name: "Terran_Command_Center"}, Race: 1, Flags: Building | CanProduce,
				RequiredUnits: map[int32]int32{7: 1}},
			{Ident: Ident{ID: 37, Name: "Zerg_Zergling"}, Race: 0},
		},
		Races: []Race{{Ident: Ident{ID: 1, Name: "Terran"}, Worker: 7, Center: 106}},
		Techs: []TechType{
			{Ident: Ident{ID: 0, Name: "Stim_Packs"}, Race: 1, MineralPrice: 100, TargetsPosition: false},
			{Ident: Ident{ID: 1, Name: "Lockdown"}, Race: 1, TargetsUnit: true},
		},
		Upgrades: []UpgradeType{{Ident: Ident{ID: 0, Name: "Terran_Infantry_Armor"}, MaxRepeats: 3}},
		Weapons:  []WeaponType{{Ident: Ident{ID: 0, Name: "Gauss_Rifle"}, DamageAmount: 6, TargetsAir: true, TargetsOwn: true}},
		Orders:   []Ident{{ID: 0, Name: "Die"}, {ID: 3, Name: "Guard"}},
	}
}

func newTestCatalog(t *testing.T) (*Catalog, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c, err := Load(context.Background(), stubSource{tables: sampleTables()}, WithLogger(logger))
	require.NoError(t, err)
	return c, &buf
}

func TestLoad_IndexesEveryCategory(t *testing.T) {
	c, _ := newTestCatalog(t)

	assert.Equal(t, 4, c.Len(UnitTypes))
	assert.Equal(t, 1, c.Len(Races))
	assert.Equal(t, 2, c.Len(Techs))
	assert.Equal(t, 2, c.Len(Orders))
	assert.Equal(t, 0, c.Len(Bullets))
	assert.Equal(t, []int32{0, 7, 106, 37}, c.IDs(UnitTypes))
}

func TestLoad_SourceFailure(t *testing.T) {
	_, err := Load(context.Background(), stubSource{err: errors.New("link down")})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeLoadFailed)
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	tables := sampleTables()
	tables.Races = append(tables.Races, Race{Ident: Ident{ID: 1, Name: "Terran_Again"}})

	_, err := New(tables)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeDuplicateID)
	errutil.AssertErrorContext(t, err, "category", "races")
}

func TestTypedLookups(t *testing.T) {
	c, _ := newTestCatalog(t)

	ut, ok := c.UnitType(7)
	require.True(t, ok)
	assert.Equal(t, "Terran_SCV", ut.Name)
	assert.True(t, ut.Flags.Has(Worker))

	tech, ok := c.Tech(1)
	require.True(t, ok)
	assert.True(t, tech.TargetsUnit)

	race, ok := c.Race(1)
	require.True(t, ok)
	assert.Equal(t, int32(106), race.Center)

	name, ok := c.Name(Orders, 3)
	require.True(t, ok)
	assert.Equal(t, "Guard", name)
}

func TestLookup_MissIsLoggedAndCounted(t *testing.T) {
	c, buf := newTestCatalog(t)
	before := testutil.ToFloat64(catalogMisses.WithLabelValues("techs"))

	_, ok := c.Tech(999)

	assert.False(t, ok)
	assert.Equal(t, before+1, testutil.ToFloat64(catalogMisses.WithLabelValues("techs")))
	assert.Contains(t, buf.String(), "catalog miss")
	assert.Contains(t, buf.String(), `"category":"techs"`)
}

func TestLookup_CategoryOutOfRange(t *testing.T) {
	c, _ := newTestCatalog(t)
	_, ok := c.Lookup(categoryCount+1, 0)
	assert.False(t, ok)
	assert.Nil(t, c.IDs(categoryCount))
}

func TestAppendRows_FixedWidths(t *testing.T) {
	c, _ := newTestCatalog(t)

	for _, cat := range Categories() {
		rows := c.AppendRows(nil, cat)
		assert.Len(t, rows, c.Len(cat)*cat.Fields(), "category %s", cat)
	}
}

func TestUnitTypeRow_Layout(t *testing.T) {
	c, _ := newTestCatalog(t)
	row := c.AppendRows(nil, UnitTypes)[:UnitTypeFields]

	assert.Equal(t, int32(0), row[0], "id")
	assert.Equal(t, int32(1), row[1], "race")
	assert.Equal(t, int32(40), row[5], "max hit points")
	assert.Equal(t, int32(400), row[31], "top speed x100")
	// booleans start after the 35 scalar fields
	flags := row[35:]
	require.Len(t, flags, 22)
	assert.Equal(t, int32(0), flags[0], "can produce")
	assert.Equal(t, int32(1), flags[1], "can attack")
	assert.Equal(t, int32(1), flags[2], "can move")
	assert.Equal(t, int32(1), flags[7], "organic")
	assert.Equal(t, int32(0), flags[21], "spell")
}

func TestWeaponRow_TargetFlags(t *testing.T) {
	c, _ := newTestCatalog(t)
	row := c.AppendRows(nil, Weapons)

	require.Len(t, row, WeaponFields)
	assert.Equal(t, int32(6), row[3])
	assert.Equal(t, int32(1), row[15], "targets air")
	assert.Equal(t, int32(0), row[16], "targets ground")
	assert.Equal(t, int32(1), row[23], "targets own")
}

func TestAppendRequiredUnits(t *testing.T) {
	c, _ := newTestCatalog(t)

	assert.Equal(t, []int32{7, 1}, c.AppendRequiredUnits(nil, 106))
	assert.Empty(t, c.AppendRequiredUnits(nil, 0))
	assert.Empty(t, c.AppendRequiredUnits(nil, 12345))
}

func TestMatch_Glob(t *testing.T) {
	c, _ := newTestCatalog(t)

	ds, err := c.Match(UnitTypes, "Terran_*")
	require.NoError(t, err)
	require.Len(t, ds, 3)
	for _, d := range ds {
		assert.Contains(t, d.Identity().Name, "Terran_")
	}

	_, err = c.Match(UnitTypes, "[")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeBadPattern)
}

func TestExport_WritesYAML(t *testing.T) {
	c, _ := newTestCatalog(t)

	doc, err := c.Export([]Category{UnitTypes, Races}, "Terran_S*")
	require.NoError(t, err)
	require.Contains(t, doc, "unit_types")
	assert.NotContains(t, doc, "races", "no race matches the pattern")

	var buf bytes.Buffer
	require.NoError(t, doc.WriteYAML(&buf))

	var decoded map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded["unit_types"], 1)
	scv := decoded["unit_types"][0]
	assert.Equal(t, "Terran_SCV", scv["name"])
	assert.Equal(t, []any{"can_move", "worker"}, scv["flags"])
}

func TestParseCategory(t *testing.T) {
	for _, cat := range Categories() {
		got, ok := ParseCategory(cat.String())
		require.True(t, ok)
		assert.Equal(t, cat, got)
	}
	_, ok := ParseCategory("spells")
	assert.False(t, ok)
}
