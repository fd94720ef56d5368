package gallery

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Store provides access to enrolled people and their face embeddings.
// Snapshot must be safe to call while AddPerson is in progress: a reader sees
// either the pre- or post-state of an enrollment, never a half-written entry.
type Store interface {
	// NextID returns 1 for an empty gallery, max(existing ids)+1 otherwise.
	// Correct even when records were loaded from disk out of order.
	NextID(ctx context.Context) (int64, error)

	// AddPerson assigns the next id, persists the record and the embedding,
	// and returns the id. Returns a *StorageError when either half fails;
	// the id is not valid until both halves are durable.
	AddPerson(ctx context.Context, input PersonInput, vector []float32) (int64, error)

	// GetPerson returns nil, nil when the id is not enrolled.
	GetPerson(ctx context.Context, id int64) (*Person, error)

	// Snapshot returns all durable (id, embedding) pairs with their records.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Count returns the number of enrolled people.
	Count(ctx context.Context) (int, error)

	// FindPeople returns enrolled people whose name matches the query,
	// diacritics- and case-insensitively. An empty query returns everyone,
	// ordered by id.
	FindPeople(ctx context.Context, query string) ([]Person, error)
}

// FilterPeople applies the FindPeople name-match contract to an id-keyed
// record map. Shared by store implementations.
func FilterPeople(people map[int64]Person, query string) []Person {
	out := make([]Person, 0, len(people))
	needle := NormalizeName(query)
	for _, p := range people {
		if needle == "" || strings.Contains(NormalizeName(p.Name), needle) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidateInput rejects enrollments missing the required identity fields.
func ValidateInput(input PersonInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.RollNumber) == "" {
		return fmt.Errorf("%w: roll number is required", ErrInvalidInput)
	}
	return nil
}
