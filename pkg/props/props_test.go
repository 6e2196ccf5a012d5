package props

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/ChrisMcGann/DigestSim/pkg/progress"
)

func TestPI(t *testing.T) {
	var c Calculator

	tests := []struct {
		name string
		seq  string
		lo   float64
		hi   float64
	}{
		{"glycine midpoint", "G", 5.99, 6.01},
		{"acidic", "DDDDE", 0, 4.5},
		{"basic", "KKKKR", 10, 14},
		{"lower case basic", "kkkkr", 10, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.PI(tt.seq)
			if got < tt.lo || got > tt.hi {
				t.Errorf("PI(%q) = %.3f, want in [%.2f, %.2f]", tt.seq, got, tt.lo, tt.hi)
			}
		})
	}

	if got := c.PI(""); got != 0 {
		t.Errorf("PI(\"\") = %f, want 0", got)
	}
}

func TestChargeAtPH(t *testing.T) {
	c := Calculator{PK: &LehningerPK}
	if q := c.ChargeAtPH("KKK", 7); q <= 0 {
		t.Errorf("ChargeAtPH(KKK, 7) = %f, want positive", q)
	}
	if q := c.ChargeAtPH("DDD", 7); q >= 0 {
		t.Errorf("ChargeAtPH(DDD, 7) = %f, want negative", q)
	}
}

func TestHydrophobicity(t *testing.T) {
	tests := []struct {
		name string
		calc Calculator
		seq  string
		want float64
	}{
		{"whole sequence average", Calculator{}, "AR", -1.35},
		{"max window", Calculator{Window: 2}, "IIKK", 4.5},
		{"window longer than sequence", Calculator{Window: 10}, "AR", -1.35},
		{"hopp woods", Calculator{Scale: HoppWoods}, "KR", 3.0},
		{"empty", Calculator{}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.calc.Hydrophobicity(tt.seq); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Hydrophobicity(%q) = %f, want %f", tt.seq, got, tt.want)
			}
		})
	}
}

func TestRetentionPredictor(t *testing.T) {
	p := NewRetentionPredictor()

	net, err := p.PredictNET("LLLLLLLLLL")
	if err != nil {
		t.Fatal(err)
	}
	if want := 91.0 / 110; math.Abs(net-want) > 1e-9 {
		t.Errorf("PredictNET(10xL) = %f, want %f", net, want)
	}

	if net, _ := p.PredictNET("WWWWWWWWWWWWWWW"); net != 1 {
		t.Errorf("PredictNET clamps to 1, got %f", net)
	}
	if net, _ := p.PredictNET("KKKKKKKKKKKKKKK"); net != 0 {
		t.Errorf("PredictNET clamps to 0, got %f", net)
	}
	if _, err := p.PredictNET("--"); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("PredictNET(\"--\") error = %v, want ErrEmptySequence", err)
	}
}

type mapStore struct {
	values map[string]float64
	puts   int
}

func (s *mapStore) GetNET(seq string) (float64, bool, error) {
	v, ok := s.values[seq]
	return v, ok, nil
}

func (s *mapStore) PutNET(seq string, net float64) error {
	s.values[seq] = net
	s.puts++
	return nil
}

func TestMemo(t *testing.T) {
	calls := 0
	predictor := NETPredictorFunc(func(seq string) (float64, error) {
		calls++
		if seq == "BAD" {
			return 0.9, errors.New("model failure")
		}
		if seq == "PANIC" {
			panic("model crashed")
		}
		return 0.25, nil
	})

	store := &mapStore{values: map[string]float64{"STORED": 0.75}}
	m := NewMemo(predictor, WithStore(store), WithLogger(logger.Nop()))

	if got := m.NET("PEPTIDE"); got != 0.25 {
		t.Errorf("NET(PEPTIDE) = %f, want 0.25", got)
	}
	if got := m.NET("PEPTIDE"); got != 0.25 {
		t.Errorf("second NET(PEPTIDE) = %f, want 0.25", got)
	}
	if calls != 1 {
		t.Errorf("predictor called %d times, want 1", calls)
	}
	if store.puts != 1 {
		t.Errorf("store written %d times, want 1", store.puts)
	}

	if got := m.NET("STORED"); got != 0.75 {
		t.Errorf("NET(STORED) = %f, want 0.75 from store", got)
	}
	if calls != 1 {
		t.Errorf("predictor called for stored sequence")
	}

	if got := m.NET("BAD"); got != 0 {
		t.Errorf("NET(BAD) = %f, want 0 after error", got)
	}
	if got := m.NET("PANIC"); got != 0 {
		t.Errorf("NET(PANIC) = %f, want 0 after panic", got)
	}
	if _, ok := store.values["BAD"]; ok {
		t.Error("failed prediction was persisted")
	}

	hits, misses := m.Stats()
	if hits != 1 || misses != 4 {
		t.Errorf("Stats() = (%d, %d), want (1, 4)", hits, misses)
	}
}

type warningRecorder struct {
	progress.Nop
	warnings []string
}

func (r *warningRecorder) Warning(msg string) { r.warnings = append(r.warnings, msg) }

func TestMemoReportsToObserver(t *testing.T) {
	predictor := NETPredictorFunc(func(seq string) (float64, error) {
		if seq == "BAD" {
			return 0, errors.New("model failure")
		}
		return 0.5, nil
	})
	rec := &warningRecorder{}
	m := NewMemo(predictor, WithLogger(logger.Nop()), WithObserver(rec))

	m.NET("PEPTIDE")
	for i := 0; i < 2; i++ {
		if got := m.NET("BAD"); got != 0 {
			t.Errorf("NET(BAD) = %f, want 0", got)
		}
	}
	if len(rec.warnings) != 1 || !strings.Contains(rec.warnings[0], "BAD") || !strings.Contains(rec.warnings[0], "model failure") {
		t.Errorf("warnings = %q, want one naming BAD and the cause", rec.warnings)
	}
}
