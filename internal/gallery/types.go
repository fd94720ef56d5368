// Package gallery defines the enrolled-people store: person records keyed by
// integer id plus one face embedding per person. Implementations live in the
// filestore and postgres subpackages; mock provides an in-memory store for
// tests.
package gallery

import (
	"time"
)

// Person is an enrolled person. Records are append-only: ids are assigned
// monotonically and never reused or mutated after creation.
type Person struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	ClassName    string    `json:"class_name"`
	RollNumber   string    `json:"roll_number"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// PersonInput carries the fields of a person before an id is assigned.
type PersonInput struct {
	Name       string
	ClassName  string
	RollNumber string
	Email      string
	Phone      string
}

// Embedding pairs a person id with their enrolled face vector.
type Embedding struct {
	PersonID int64
	Vector   []float32
}

// Snapshot is a point-in-time view of the gallery. Entries keep insertion
// order; the matcher relies on that order only for deterministic tie-breaks.
// A snapshot is immutable and safe to share across goroutines.
type Snapshot struct {
	Entries []Embedding
	People  map[int64]Person
}

// Person returns the record for an entry's person id, or nil if the record
// half is missing from this snapshot.
func (s *Snapshot) Person(id int64) *Person {
	if s == nil {
		return nil
	}
	if p, ok := s.People[id]; ok {
		return &p
	}
	return nil
}

// Len returns the number of embedding entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}
