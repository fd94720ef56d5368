package match

import (
	"math"
	"testing"

	"github.com/kozaktomas/facewatch/internal/gallery"
)

func twoEntrySnapshot() *gallery.Snapshot {
	return &gallery.Snapshot{
		Entries: []gallery.Embedding{
			{PersonID: 1, Vector: []float32{0, 0}},
			{PersonID: 2, Vector: []float32{10, 10}},
		},
		People: map[int64]gallery.Person{
			1: {ID: 1, Name: "Alice"},
			2: {ID: 2, Name: "Bob"},
		},
	}
}

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"unit apart", []float32{0, 0}, []float32{1, 0}, 1},
		{"diagonal", []float32{0, 0}, []float32{3, 4}, 5},
		{"empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EuclideanDistance(tt.a, tt.b); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("EuclideanDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}

	t.Run("length mismatch", func(t *testing.T) {
		if got := EuclideanDistance([]float32{1}, []float32{1, 2}); !math.IsInf(got, 1) {
			t.Errorf("expected +Inf for length mismatch, got %v", got)
		}
	})
}

func TestClassifyExactMatch(t *testing.T) {
	snap := twoEntrySnapshot()

	// A probe identical to a gallery vector matches with confidence 1
	// regardless of tolerance.
	for _, tol := range []float64{0, 0.6, 0.9} {
		r := Classify([]float32{10, 10}, snap, tol)
		if !r.Known || r.PersonID != 2 {
			t.Fatalf("tolerance %v: expected id 2, got %+v", tol, r)
		}
		if r.Confidence != 1.0 {
			t.Errorf("tolerance %v: expected confidence 1.0, got %v", tol, r.Confidence)
		}
	}
}

func TestClassifyEmptySnapshot(t *testing.T) {
	r := Classify([]float32{1, 2}, &gallery.Snapshot{}, DefaultTolerance)
	if r.Known {
		t.Errorf("expected Unknown for empty snapshot, got %+v", r)
	}
	if r.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", r.Confidence)
	}
}

func TestClassifyTieBreak(t *testing.T) {
	snap := &gallery.Snapshot{
		Entries: []gallery.Embedding{
			{PersonID: 5, Vector: []float32{1, 0}},
			{PersonID: 3, Vector: []float32{-1, 0}},
		},
	}

	// Probe equidistant from both entries: the first in snapshot order wins.
	r := Classify([]float32{0, 0}, snap, 2)
	if !r.Known || r.PersonID != 5 {
		t.Errorf("expected deterministic tie-break to id 5, got %+v", r)
	}
}

func TestClassifyWithinTolerance(t *testing.T) {
	snap := twoEntrySnapshot()

	r := Classify([]float32{0.1, 0.1}, snap, 0.6)
	if !r.Known || r.PersonID != 1 {
		t.Fatalf("expected id 1, got %+v", r)
	}
	wantDist := math.Sqrt(0.02)
	if math.Abs(r.Distance-wantDist) > 1e-6 {
		t.Errorf("expected distance %.6f, got %v", wantDist, r.Distance)
	}
	if math.Abs(r.Confidence-(1-wantDist)) > 1e-6 {
		t.Errorf("expected confidence %.6f, got %v", 1-wantDist, r.Confidence)
	}
}

func TestClassifyBeyondTolerance(t *testing.T) {
	snap := twoEntrySnapshot()

	// Nearest entry is ~7.07 away, well over tolerance.
	r := Classify([]float32{5, 5}, snap, 0.6)
	if r.Known {
		t.Errorf("expected Unknown, got %+v", r)
	}
	if r.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", r.Confidence)
	}
}

func TestClassifyNegativeConfidence(t *testing.T) {
	snap := &gallery.Snapshot{
		Entries: []gallery.Embedding{{PersonID: 1, Vector: []float32{0, 0}}},
	}

	// Distance 2 within a tolerance of 3: confidence goes negative and is
	// reported as-is.
	r := Classify([]float32{2, 0}, snap, 3)
	if !r.Known {
		t.Fatalf("expected match, got %+v", r)
	}
	if r.Confidence != -1 {
		t.Errorf("expected confidence -1, got %v", r.Confidence)
	}
}

func TestIndexMatchesLinearScan(t *testing.T) {
	snap := &gallery.Snapshot{
		Entries: []gallery.Embedding{
			{PersonID: 1, Vector: []float32{0, 0, 0}},
			{PersonID: 2, Vector: []float32{1, 1, 1}},
			{PersonID: 3, Vector: []float32{5, 5, 5}},
		},
	}
	idx := NewIndex(snap)

	probes := [][]float32{
		{0.1, 0, 0},
		{0.9, 1.1, 1},
		{5, 5, 4.8},
	}
	for _, probe := range probes {
		want := Classify(probe, snap, DefaultTolerance)
		got, err := idx.Classify(probe, DefaultTolerance)
		if err != nil {
			t.Fatalf("index Classify: %v", err)
		}
		if got != want {
			t.Errorf("probe %v: index %+v, linear %+v", probe, got, want)
		}
	}
}

func TestIndexEmpty(t *testing.T) {
	idx := NewIndex(&gallery.Snapshot{})
	r, err := idx.Classify([]float32{1}, DefaultTolerance)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if r.Known {
		t.Errorf("expected Unknown on empty index, got %+v", r)
	}
}

func TestIndexRebuild(t *testing.T) {
	idx := NewIndex(&gallery.Snapshot{})
	if idx.Len() != 0 {
		t.Fatalf("expected empty index, got %d", idx.Len())
	}

	idx.Rebuild(&gallery.Snapshot{
		Entries: []gallery.Embedding{{PersonID: 7, Vector: []float32{1, 2}}},
	})
	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry after rebuild, got %d", idx.Len())
	}

	r, err := idx.Classify([]float32{1, 2}, DefaultTolerance)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !r.Known || r.PersonID != 7 || r.Confidence != 1 {
		t.Errorf("expected exact match on id 7, got %+v", r)
	}
}
