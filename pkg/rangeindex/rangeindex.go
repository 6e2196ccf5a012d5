// Package rangeindex provides tolerance range searches over a sorted
// numeric array. Values are loaded in insertion order, sorted once, and a
// permutation back to the insertion order is kept so that matches can be
// joined to the rows they came from.
package rangeindex

import (
	"math"
	"sort"
)

// DataType identifies the active backing array.
type DataType int

const (
	None DataType = iota
	Int
	Float
	Double
)

func (d DataType) String() string {
	switch d {
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	}
	return "none"
}

type number interface {
	~int32 | ~float32 | ~float64
}

// Index holds one numeric array of a single type. It is not safe for
// concurrent mutation; concurrent reads after Finalize are fine.
type Index struct {
	dataType DataType
	ints     []int32
	floats   []float32
	doubles  []float64

	// original[i] is the insertion position of the value now at sorted
	// position i. It always has the same length as the active array.
	original []int
	sorted   bool
}

// New returns an empty Index.
func New() *Index {
	return &Index{}
}

// Clear removes all data.
func (x *Index) Clear() {
	*x = Index{}
}

// DataType returns the active backing type.
func (x *Index) DataType() DataType {
	return x.dataType
}

// Len returns the number of values.
func (x *Index) Len() int {
	return len(x.original)
}

// LoadInts replaces the contents with a copy of data.
func (x *Index) LoadInts(data []int32) {
	x.Clear()
	x.dataType = Int
	x.ints = append([]int32(nil), data...)
	x.original = identity(len(data))
}

// LoadFloats replaces the contents with a copy of data.
func (x *Index) LoadFloats(data []float32) {
	x.Clear()
	x.dataType = Float
	x.floats = append([]float32(nil), data...)
	x.original = identity(len(data))
}

// LoadDoubles replaces the contents with a copy of data.
func (x *Index) LoadDoubles(data []float64) {
	x.Clear()
	x.dataType = Double
	x.doubles = append([]float64(nil), data...)
	x.original = identity(len(data))
}

// Append adds one value, converting it to the active type. The first
// value appended to an empty index makes Double the active type.
func (x *Index) Append(v float64) {
	if x.dataType == None {
		x.dataType = Double
	}
	switch x.dataType {
	case Int:
		x.ints = append(x.ints, int32(math.Round(v)))
	case Float:
		x.floats = append(x.floats, float32(v))
	default:
		x.doubles = append(x.doubles, v)
	}
	x.original = append(x.original, len(x.original))
	x.sorted = false
}

// AppendInt adds one value, converting it to the active type. The first
// value appended to an empty index makes Int the active type.
func (x *Index) AppendInt(v int32) {
	if x.dataType == None {
		x.dataType = Int
	}
	if x.dataType != Int {
		x.Append(float64(v))
		return
	}
	x.ints = append(x.ints, v)
	x.original = append(x.original, len(x.original))
	x.sorted = false
}

// Finalize sorts the data ascending, ties kept in insertion order, and
// records the permutation. Queries call it automatically when needed.
func (x *Index) Finalize() {
	if x.sorted {
		return
	}
	switch x.dataType {
	case Int:
		sortWithIndex(x.ints, x.original)
	case Float:
		sortWithIndex(x.floats, x.original)
	case Double:
		sortWithIndex(x.doubles, x.original)
	}
	x.sorted = true
}

// FindRange returns the first and last sorted positions whose values lie
// within value ± tolerance (inclusive). ok is false when nothing matches,
// including for a NaN query. The query is converted to the active type;
// the window bounds are computed in float64 so they never overflow it.
func (x *Index) FindRange(value, tolerance float64) (first, last int, ok bool) {
	x.Finalize()
	switch x.dataType {
	case Int:
		return findRange(x.ints, math.Round(value), math.Round(tolerance))
	case Float:
		return findRange(x.floats, float64(float32(value)), float64(float32(tolerance)))
	case Double:
		return findRange(x.doubles, value, tolerance)
	}
	return -1, -1, false
}

// FindRangeInt is FindRange for integer queries.
func (x *Index) FindRangeInt(value, tolerance int32) (first, last int, ok bool) {
	if x.dataType == Int {
		x.Finalize()
		return findRange(x.ints, float64(value), float64(tolerance))
	}
	return x.FindRange(float64(value), float64(tolerance))
}

// OriginalIndex returns the insertion position of the value at sorted
// position pos, or -1 when pos is out of range.
func (x *Index) OriginalIndex(pos int) int {
	x.Finalize()
	if pos < 0 || pos >= len(x.original) {
		return -1
	}
	return x.original[pos]
}

// Value returns the value at sorted position pos as a float64.
func (x *Index) Value(pos int) float64 {
	x.Finalize()
	if pos < 0 || pos >= len(x.original) {
		return math.NaN()
	}
	switch x.dataType {
	case Int:
		return float64(x.ints[pos])
	case Float:
		return float64(x.floats[pos])
	}
	return x.doubles[pos]
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

type indexed[T number] struct {
	data []T
	idx  []int
}

func (s indexed[T]) Len() int           { return len(s.data) }
func (s indexed[T]) Less(i, j int) bool { return s.data[i] < s.data[j] }
func (s indexed[T]) Swap(i, j int) {
	s.data[i], s.data[j] = s.data[j], s.data[i]
	s.idx[i], s.idx[j] = s.idx[j], s.idx[i]
}

// sortWithIndex sorts data and applies the same moves to idx. The sort
// is stable, so equal values keep their insertion order.
func sortWithIndex[T number](data []T, idx []int) {
	sort.Stable(indexed[T]{data: data, idx: idx})
}

func findRange[T number](data []T, value, tolerance float64) (int, int, bool) {
	if len(data) == 0 || math.IsNaN(value) || math.IsNaN(tolerance) {
		return -1, -1, false
	}
	tolerance = math.Abs(tolerance)
	return narrow(data, value-tolerance, value+tolerance, 0, len(data)-1)
}

// narrow halves [first, last] until a value inside [low, high] is found,
// then walks outward in both directions to the ends of the matching run.
func narrow[T number](data []T, low, high float64, first, last int) (int, int, bool) {
	mid := (first + last) / 2

	if mid == first {
		// One or two candidates left
		start, end := -1, -1
		if inside(data[first], low, high) {
			start, end = first, first
		}
		if last != first && inside(data[last], low, high) {
			if start < 0 {
				start = last
			}
			end = last
		}
		if start < 0 {
			return -1, -1, false
		}
		return walk(data, low, high, start, end)
	}

	switch {
	case float64(data[mid]) > high:
		return narrow(data, low, high, first, mid)
	case float64(data[mid]) < low:
		return narrow(data, low, high, mid, last)
	}
	return walk(data, low, high, mid, mid)
}

func walk[T number](data []T, low, high float64, start, end int) (int, int, bool) {
	for start > 0 && float64(data[start-1]) >= low {
		start--
	}
	for end < len(data)-1 && float64(data[end+1]) <= high {
		end++
	}
	return start, end, true
}

func inside[T number](v T, low, high float64) bool {
	f := float64(v)
	return f >= low && f <= high
}
