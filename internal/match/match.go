// Package match classifies a probe face embedding against a gallery
// snapshot: nearest neighbor by Euclidean distance with a tolerance cutoff.
package match

import (
	"math"

	"github.com/kozaktomas/facewatch/internal/gallery"
)

// Default tolerance presets. Smaller is stricter; 0.6 is the conventional
// cutoff for 128-dim face embeddings.
const (
	DefaultTolerance = 0.6
	RelaxedTolerance = 0.9
)

// Result is the outcome of classifying one probe vector. Confidence is
// 1-distance and deliberately unclamped: a distance above 1 yields a
// negative confidence, which callers display as-is.
type Result struct {
	PersonID   int64   `json:"person_id,omitempty"`
	Known      bool    `json:"known"`
	Confidence float64 `json:"confidence"`
	Distance   float64 `json:"distance"`
}

// Unknown is the result for probes matching nobody.
func Unknown() Result {
	return Result{Known: false, Confidence: 0}
}

// EuclideanDistance returns the L2 distance between two vectors, or +Inf
// when lengths differ so a malformed entry can never win a match.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Classify scans the snapshot for the entry nearest to probe. Ties are broken
// by the earliest entry in snapshot order, which makes results reproducible
// across runs. Returns Unknown for an empty snapshot or when the minimum
// distance exceeds tolerance.
func Classify(probe []float32, snap *gallery.Snapshot, tolerance float64) Result {
	if snap.Len() == 0 {
		return Unknown()
	}

	best := 0
	bestDist := EuclideanDistance(probe, snap.Entries[0].Vector)
	for i := 1; i < len(snap.Entries); i++ {
		if d := EuclideanDistance(probe, snap.Entries[i].Vector); d < bestDist {
			best = i
			bestDist = d
		}
	}

	if bestDist > tolerance {
		return Unknown()
	}
	return Result{
		PersonID:   snap.Entries[best].PersonID,
		Known:      true,
		Confidence: 1 - bestDist,
		Distance:   bestDist,
	}
}
