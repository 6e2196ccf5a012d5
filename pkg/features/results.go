package features

import "sort"

// Match is one feature-to-reference match with its scores and errors.
// MassErr and NETErr are comparison minus feature.
type Match struct {
	FeatureID      int
	MatchingID     int
	SLiCScore      float64
	DelSLiC        float64
	MassErr        float64
	NETErr         float64
	CandidateCount int
}

// MatchResults is an append-only list of matches that can be queried by
// feature ID.
type MatchResults struct {
	rows []Match

	byFeature []int // row numbers sorted by feature ID, stable
	sorted    bool
}

// NewMatchResults returns an empty result list.
func NewMatchResults() *MatchResults {
	return &MatchResults{}
}

// Add appends m.
func (r *MatchResults) Add(m Match) {
	r.rows = append(r.rows, m)
	r.sorted = false
}

// Len returns the number of matches.
func (r *MatchResults) Len() int {
	return len(r.rows)
}

// Row returns the match at row in insertion order.
func (r *MatchResults) Row(row int) (Match, bool) {
	if row < 0 || row >= len(r.rows) {
		return Match{}, false
	}
	return r.rows[row], true
}

// All returns a copy of every match in insertion order.
func (r *MatchResults) All() []Match {
	return append([]Match(nil), r.rows...)
}

// Clear removes every match.
func (r *MatchResults) Clear() {
	r.rows = r.rows[:0]
	r.byFeature = r.byFeature[:0]
	r.sorted = false
}

// ForFeature returns every match for featureID in insertion order, or nil.
func (r *MatchResults) ForFeature(featureID int) []Match {
	r.ensureSorted()

	lo, hi := 0, len(r.byFeature)-1
	found := -1
	for lo <= hi && found < 0 {
		mid := (lo + hi) / 2
		got := r.rows[r.byFeature[mid]].FeatureID
		switch {
		case got == featureID:
			found = mid
		case got < featureID:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	if found < 0 {
		return nil
	}

	first, last := found, found
	for first > 0 && r.rows[r.byFeature[first-1]].FeatureID == featureID {
		first--
	}
	for last < len(r.byFeature)-1 && r.rows[r.byFeature[last+1]].FeatureID == featureID {
		last++
	}

	matches := make([]Match, 0, last-first+1)
	for _, row := range r.byFeature[first : last+1] {
		matches = append(matches, r.rows[row])
	}
	return matches
}

// MatchCount returns how many matches featureID has.
func (r *MatchResults) MatchCount(featureID int) int {
	return len(r.ForFeature(featureID))
}

func (r *MatchResults) ensureSorted() {
	if r.sorted {
		return
	}
	r.byFeature = r.byFeature[:0]
	for row := range r.rows {
		r.byFeature = append(r.byFeature, row)
	}
	sort.SliceStable(r.byFeature, func(i, j int) bool {
		return r.rows[r.byFeature[i]].FeatureID < r.rows[r.byFeature[j]].FeatureID
	})
	r.sorted = true
}
