// Package features stores mass/NET features for peak matching. Tables are
// append-only: rows keep their insertion order and can be looked up by row
// or by the caller-assigned feature ID.
package features

import (
	"sort"
)

// Feature is a (mass, NET) pair identified by a unique integer ID.
type Feature struct {
	ID   int
	Name string
	Mass float64
	NET  float32
}

// ComparisonFeature is a reference feature with NET spread and a
// discriminant score.
type ComparisonFeature struct {
	Feature
	NETStDev          float32
	DiscriminantScore float32
}

// Table is an indexed feature store. ID lookups use a hash map by default;
// without it, they binary search a list of rows sorted by ID that is
// rebuilt on the first lookup after an insert.
type Table struct {
	rows    []Feature
	useHash bool
	byID    map[int]int

	idOrder []int // row numbers sorted by feature ID
	sorted  bool
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithoutIDHash makes ID lookups use binary search instead of a map.
func WithoutIDHash() TableOption {
	return func(t *Table) { t.useHash = false }
}

// NewTable returns an empty table.
func NewTable(opts ...TableOption) *Table {
	t := &Table{useHash: true}
	for _, o := range opts {
		o(t)
	}
	if t.useHash {
		t.byID = make(map[int]int)
	}
	return t
}

// UsesIDHash reports whether ID lookups go through the hash map.
func (t *Table) UsesIDHash() bool {
	return t.useHash
}

// SetUseIDHash switches the ID lookup strategy, building or dropping the
// map as needed.
func (t *Table) SetUseIDHash(use bool) {
	if use == t.useHash {
		return
	}
	t.useHash = use
	if !use {
		t.byID = nil
		return
	}
	t.byID = make(map[int]int, len(t.rows))
	for row, f := range t.rows {
		t.byID[f.ID] = row
	}
}

// Add appends a feature. It returns false, leaving the table unchanged,
// when id is already present.
func (t *Table) Add(id int, name string, mass float64, net float32) bool {
	if _, ok := t.RowOf(id); ok {
		return false
	}
	t.rows = append(t.rows, Feature{ID: id, Name: name, Mass: mass, NET: net})
	row := len(t.rows) - 1
	if t.useHash {
		t.byID[id] = row
	}
	t.sorted = false
	return true
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Clear removes every row.
func (t *Table) Clear() {
	t.rows = t.rows[:0]
	t.idOrder = t.idOrder[:0]
	t.sorted = false
	if t.useHash {
		t.byID = make(map[int]int)
	}
}

// Row returns the feature stored at row.
func (t *Table) Row(row int) (Feature, bool) {
	if row < 0 || row >= len(t.rows) {
		return Feature{}, false
	}
	return t.rows[row], true
}

// ByID returns the feature with the given ID.
func (t *Table) ByID(id int) (Feature, bool) {
	row, ok := t.RowOf(id)
	if !ok {
		return Feature{}, false
	}
	return t.rows[row], true
}

// Contains reports whether id is present.
func (t *Table) Contains(id int) bool {
	_, ok := t.RowOf(id)
	return ok
}

// RowOf returns the row holding id.
func (t *Table) RowOf(id int) (int, bool) {
	if t.useHash {
		row, ok := t.byID[id]
		return row, ok
	}

	t.ensureSorted()
	lo, hi := 0, len(t.idOrder)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		got := t.rows[t.idOrder[mid]].ID
		switch {
		case got == id:
			return t.idOrder[mid], true
		case got < id:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1, false
}

func (t *Table) ensureSorted() {
	if t.sorted {
		return
	}
	t.idOrder = t.idOrder[:0]
	for row := range t.rows {
		t.idOrder = append(t.idOrder, row)
	}
	sort.Slice(t.idOrder, func(i, j int) bool {
		return t.rows[t.idOrder[i]].ID < t.rows[t.idOrder[j]].ID
	})
	t.sorted = true
}

// MassesInRowRange returns the masses of rows start through end
// inclusive, clamped to the table.
func (t *Table) MassesInRowRange(start, end int) []float64 {
	if start < 0 {
		start = 0
	}
	if end >= len(t.rows) {
		end = len(t.rows) - 1
	}
	if end < start {
		return nil
	}
	masses := make([]float64, 0, end-start+1)
	for _, f := range t.rows[start : end+1] {
		masses = append(masses, f.Mass)
	}
	return masses
}

// Masses returns every mass in row order.
func (t *Table) Masses() []float64 {
	return t.MassesInRowRange(0, len(t.rows)-1)
}

type comparisonExtra struct {
	netStDev          float32
	discriminantScore float32
}

// ComparisonTable is a Table with NET standard deviation and discriminant
// score stored per row in a parallel array.
type ComparisonTable struct {
	base  *Table
	extra []comparisonExtra
}

// NewComparisonTable returns an empty comparison table.
func NewComparisonTable(opts ...TableOption) *ComparisonTable {
	return &ComparisonTable{base: NewTable(opts...)}
}

// Add appends a comparison feature; false when id is already present.
func (t *ComparisonTable) Add(id int, name string, mass float64, net, netStDev, discriminantScore float32) bool {
	if !t.base.Add(id, name, mass, net) {
		return false
	}
	t.extra = append(t.extra, comparisonExtra{netStDev: netStDev, discriminantScore: discriminantScore})
	return true
}

// Len returns the number of rows.
func (t *ComparisonTable) Len() int {
	return t.base.Len()
}

func (t *ComparisonTable) Contains(id int) bool {
	return t.base.Contains(id)
}

func (t *ComparisonTable) RowOf(id int) (int, bool) {
	return t.base.RowOf(id)
}

func (t *ComparisonTable) SetUseIDHash(use bool) {
	t.base.SetUseIDHash(use)
}

func (t *ComparisonTable) Masses() []float64 {
	return t.base.Masses()
}

func (t *ComparisonTable) MassesInRowRange(start, end int) []float64 {
	return t.base.MassesInRowRange(start, end)
}

// Clear removes every row.
func (t *ComparisonTable) Clear() {
	t.base.Clear()
	t.extra = t.extra[:0]
}

// Row returns the comparison feature stored at row.
func (t *ComparisonTable) Row(row int) (ComparisonFeature, bool) {
	f, ok := t.base.Row(row)
	if !ok {
		return ComparisonFeature{}, false
	}
	x := t.extra[row]
	return ComparisonFeature{Feature: f, NETStDev: x.netStDev, DiscriminantScore: x.discriminantScore}, true
}

// ByID returns the comparison feature with the given ID.
func (t *ComparisonTable) ByID(id int) (ComparisonFeature, bool) {
	row, ok := t.base.RowOf(id)
	if !ok {
		return ComparisonFeature{}, false
	}
	return t.Row(row)
}
