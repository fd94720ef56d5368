package gallery

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidInput marks enrollments rejected before any write happened.
var ErrInvalidInput = errors.New("invalid person input")

// StorageError reports a failed persistence write during enrollment. Op names
// the half that failed ("record" or "embedding") so callers can tell whether
// the store may hold an orphaned record.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("gallery storage: %s write failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConsistencyError reports ids present in one half of the store but absent
// from the other, found while loading. The store still serves the consistent
// subset; repair is left to the operator.
type ConsistencyError struct {
	// RecordsWithoutEmbedding lists person ids with a record but no vector.
	RecordsWithoutEmbedding []int64
	// EmbeddingsWithoutRecord lists person ids with a vector but no record.
	EmbeddingsWithoutRecord []int64
}

func (e *ConsistencyError) Error() string {
	var parts []string
	if len(e.RecordsWithoutEmbedding) > 0 {
		parts = append(parts, fmt.Sprintf("records without embedding: %v", e.RecordsWithoutEmbedding))
	}
	if len(e.EmbeddingsWithoutRecord) > 0 {
		parts = append(parts, fmt.Sprintf("embeddings without record: %v", e.EmbeddingsWithoutRecord))
	}
	return "gallery inconsistency: " + strings.Join(parts, "; ")
}

// CheckConsistency compares the record and embedding halves and returns a
// *ConsistencyError naming the orphans, or nil when the halves agree.
func CheckConsistency(people map[int64]Person, vectors map[int64][]float32) error {
	var cerr ConsistencyError
	for id := range people {
		if _, ok := vectors[id]; !ok {
			cerr.RecordsWithoutEmbedding = append(cerr.RecordsWithoutEmbedding, id)
		}
	}
	for id := range vectors {
		if _, ok := people[id]; !ok {
			cerr.EmbeddingsWithoutRecord = append(cerr.EmbeddingsWithoutRecord, id)
		}
	}
	if len(cerr.RecordsWithoutEmbedding) == 0 && len(cerr.EmbeddingsWithoutRecord) == 0 {
		return nil
	}
	sort.Slice(cerr.RecordsWithoutEmbedding, func(i, j int) bool {
		return cerr.RecordsWithoutEmbedding[i] < cerr.RecordsWithoutEmbedding[j]
	})
	sort.Slice(cerr.EmbeddingsWithoutRecord, func(i, j int) bool {
		return cerr.EmbeddingsWithoutRecord[i] < cerr.EmbeddingsWithoutRecord[j]
	})
	return &cerr
}
