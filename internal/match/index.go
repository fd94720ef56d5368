package match

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/facewatch/internal/gallery"
)

// HNSWMaxNeighbors is the M parameter for the graph.
const HNSWMaxNeighbors = 16

// Index accelerates classification with an HNSW graph. It honors the same
// contract as Classify for exact matches; at the tens-to-hundreds scale of a
// single gallery the linear scan is usually enough, so the index is opt-in
// for the photo-match endpoint where probes arrive in bursts.
type Index struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[int64]
	snap  *gallery.Snapshot
}

// NewIndex builds the graph from a snapshot.
func NewIndex(snap *gallery.Snapshot) *Index {
	idx := &Index{}
	idx.Rebuild(snap)
	return idx
}

// Rebuild replaces the graph with one built from the given snapshot.
func (idx *Index) Rebuild(snap *gallery.Snapshot) {
	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.EuclideanDistance

	for _, e := range snap.Entries {
		if len(e.Vector) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(e.PersonID, e.Vector))
	}

	idx.mu.Lock()
	idx.graph = g
	idx.snap = snap
	idx.mu.Unlock()
}

// Classify finds the nearest enrolled person via the graph and applies the
// tolerance cutoff. Distances are recomputed exactly so the cutoff behaves
// identically to the linear scan.
func (idx *Index) Classify(probe []float32, tolerance float64) (Result, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph == nil {
		return Unknown(), errors.New("index not initialized")
	}
	if idx.snap.Len() == 0 {
		return Unknown(), nil
	}

	neighbors := idx.graph.Search(probe, 1)
	if len(neighbors) == 0 {
		return Unknown(), nil
	}

	n := neighbors[0]
	dist := EuclideanDistance(probe, n.Value)
	if dist > tolerance {
		return Unknown(), nil
	}
	return Result{
		PersonID:   n.Key,
		Known:      true,
		Confidence: 1 - dist,
		Distance:   dist,
	}, nil
}

// ClassifySnapshot classifies probe against snap, rebuilding the graph first
// when the snapshot changed since the last call. Rebuild cost amortizes over
// bursts of probes against the same snapshot.
func (idx *Index) ClassifySnapshot(probe []float32, snap *gallery.Snapshot, tolerance float64) Result {
	idx.mu.RLock()
	current := idx.snap
	idx.mu.RUnlock()
	if current != snap {
		idx.Rebuild(snap)
	}

	result, err := idx.Classify(probe, tolerance)
	if err != nil {
		return Unknown()
	}
	return result
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.snap.Len()
}
