package features

import (
	"reflect"
	"testing"
)

func TestTableAddAndLookup(t *testing.T) {
	for _, hashed := range []bool{true, false} {
		name := "hash"
		var opts []TableOption
		if !hashed {
			name = "binary search"
			opts = append(opts, WithoutIDHash())
		}

		t.Run(name, func(t *testing.T) {
			tbl := NewTable(opts...)
			if tbl.UsesIDHash() != hashed {
				t.Fatalf("UsesIDHash() = %v, want %v", tbl.UsesIDHash(), hashed)
			}

			ids := []int{42, 7, 19, 3}
			for i, id := range ids {
				if !tbl.Add(id, "", float64(100*(i+1)), float32(i)/10) {
					t.Fatalf("Add(%d) = false, want true", id)
				}
			}
			if tbl.Add(19, "dup", 1, 1) {
				t.Error("Add with duplicate ID = true, want false")
			}
			if tbl.Len() != 4 {
				t.Fatalf("Len() = %d, want 4", tbl.Len())
			}

			f, ok := tbl.ByID(19)
			if !ok || f.Mass != 300 {
				t.Errorf("ByID(19) = (%+v, %v), want mass 300", f, ok)
			}
			if row, ok := tbl.RowOf(3); !ok || row != 3 {
				t.Errorf("RowOf(3) = (%d, %v), want (3, true)", row, ok)
			}
			if _, ok := tbl.ByID(8); ok {
				t.Error("ByID(8) found a feature that was never added")
			}

			// Lookups after an insert see the new row
			tbl.Add(1, "late", 500, 0.9)
			if f, ok := tbl.ByID(1); !ok || f.Name != "late" {
				t.Errorf("ByID(1) after insert = (%+v, %v)", f, ok)
			}
		})
	}
}

func TestTableSwitchLookup(t *testing.T) {
	tbl := NewTable()
	tbl.Add(5, "", 1, 0)
	tbl.Add(2, "", 2, 0)

	tbl.SetUseIDHash(false)
	if row, ok := tbl.RowOf(2); !ok || row != 1 {
		t.Errorf("RowOf(2) without hash = (%d, %v), want (1, true)", row, ok)
	}
	tbl.SetUseIDHash(true)
	if row, ok := tbl.RowOf(5); !ok || row != 0 {
		t.Errorf("RowOf(5) with rebuilt hash = (%d, %v), want (0, true)", row, ok)
	}

	tbl.Clear()
	if tbl.Len() != 0 || tbl.Contains(5) {
		t.Error("Clear() left rows behind")
	}
}

func TestMassesInRowRange(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < 5; i++ {
		tbl.Add(i, "", float64(i)+0.5, 0)
	}

	tests := []struct {
		name       string
		start, end int
		want       []float64
	}{
		{"inner", 1, 3, []float64{1.5, 2.5, 3.5}},
		{"clamped", -2, 10, []float64{0.5, 1.5, 2.5, 3.5, 4.5}},
		{"single", 4, 4, []float64{4.5}},
		{"empty", 3, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tbl.MassesInRowRange(tt.start, tt.end); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MassesInRowRange(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestComparisonTable(t *testing.T) {
	tbl := NewComparisonTable(WithoutIDHash())
	tbl.Add(10, "PEPTIDE", 799.36, 0.3, 0.02, 0.8)
	tbl.Add(4, "SAMPLER", 759.4, 0.4, 0.01, 0.5)

	if tbl.Add(4, "again", 1, 0, 0, 0) {
		t.Error("Add with duplicate ID = true, want false")
	}

	got, ok := tbl.ByID(4)
	if !ok {
		t.Fatal("ByID(4) not found")
	}
	want := ComparisonFeature{
		Feature:           Feature{ID: 4, Name: "SAMPLER", Mass: 759.4, NET: 0.4},
		NETStDev:          0.01,
		DiscriminantScore: 0.5,
	}
	if got != want {
		t.Errorf("ByID(4) = %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(tbl.Masses(), []float64{799.36, 759.4}) {
		t.Errorf("Masses() = %v", tbl.Masses())
	}

	tbl.Clear()
	if tbl.Len() != 0 {
		t.Errorf("Len() after Clear = %d", tbl.Len())
	}
	if !tbl.Add(4, "fresh", 1, 0, 0, 0) {
		t.Error("Add after Clear = false")
	}
	if f, _ := tbl.Row(0); f.NETStDev != 0 {
		t.Errorf("Row(0) kept stale extra data: %+v", f)
	}
}

func TestMatchResultsForFeature(t *testing.T) {
	r := NewMatchResults()
	r.Add(Match{FeatureID: 3, MatchingID: 30})
	r.Add(Match{FeatureID: 1, MatchingID: 10})
	r.Add(Match{FeatureID: 3, MatchingID: 31})
	r.Add(Match{FeatureID: 2, MatchingID: 20})
	r.Add(Match{FeatureID: 3, MatchingID: 32})

	got := r.ForFeature(3)
	var ids []int
	for _, m := range got {
		ids = append(ids, m.MatchingID)
	}
	if !reflect.DeepEqual(ids, []int{30, 31, 32}) {
		t.Errorf("ForFeature(3) matching IDs = %v, want [30 31 32]", ids)
	}
	if n := r.MatchCount(1); n != 1 {
		t.Errorf("MatchCount(1) = %d, want 1", n)
	}
	if got := r.ForFeature(9); got != nil {
		t.Errorf("ForFeature(9) = %v, want nil", got)
	}

	// Results added after a lookup are still found
	r.Add(Match{FeatureID: 9, MatchingID: 90})
	if n := r.MatchCount(9); n != 1 {
		t.Errorf("MatchCount(9) after insert = %d, want 1", n)
	}

	if m, ok := r.Row(1); !ok || m.MatchingID != 10 {
		t.Errorf("Row(1) = (%+v, %v), want insertion order", m, ok)
	}
	r.Clear()
	if r.Len() != 0 || r.ForFeature(3) != nil {
		t.Error("Clear() left matches behind")
	}
}
