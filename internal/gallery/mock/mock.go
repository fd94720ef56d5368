// Package mock provides an in-memory gallery store for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kozaktomas/facewatch/internal/gallery"
)

// Store is a map-backed gallery store with error injection hooks.
type Store struct {
	mu      sync.RWMutex
	people  map[int64]gallery.Person
	vectors map[int64][]float32
	order   []int64
	maxID   int64

	// Error injection
	NextIDError     error
	AddPersonError  error
	GetPersonError  error
	SnapshotError   error
	CountError      error
	FindPeopleError error
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{
		people:  make(map[int64]gallery.Person),
		vectors: make(map[int64][]float32),
	}
}

// Seed enrolls a person with a fixed id, bypassing validation. Test setup only.
func (m *Store) Seed(p gallery.Person, vector []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people[p.ID] = p
	m.vectors[p.ID] = append([]float32(nil), vector...)
	m.order = append(m.order, p.ID)
	if p.ID > m.maxID {
		m.maxID = p.ID
	}
}

// NextID returns 1 for an empty gallery, max+1 otherwise.
func (m *Store) NextID(ctx context.Context) (int64, error) {
	if m.NextIDError != nil {
		return 0, m.NextIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxID + 1, nil
}

// AddPerson enrolls a person in memory.
func (m *Store) AddPerson(ctx context.Context, input gallery.PersonInput, vector []float32) (int64, error) {
	if m.AddPersonError != nil {
		return 0, m.AddPersonError
	}
	if err := gallery.ValidateInput(input); err != nil {
		return 0, err
	}
	if len(vector) == 0 {
		return 0, fmt.Errorf("%w: empty embedding vector", gallery.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.maxID + 1
	m.people[id] = gallery.Person{
		ID:           id,
		Name:         input.Name,
		ClassName:    input.ClassName,
		RollNumber:   input.RollNumber,
		Email:        input.Email,
		Phone:        input.Phone,
		RegisteredAt: time.Now().UTC(),
	}
	m.vectors[id] = append([]float32(nil), vector...)
	m.order = append(m.order, id)
	m.maxID = id
	return id, nil
}

// GetPerson returns nil, nil when the id is not enrolled.
func (m *Store) GetPerson(ctx context.Context, id int64) (*gallery.Person, error) {
	if m.GetPersonError != nil {
		return nil, m.GetPersonError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.people[id]; ok {
		return &p, nil
	}
	return nil, nil
}

// Snapshot copies all entries in insertion order.
func (m *Store) Snapshot(ctx context.Context) (*gallery.Snapshot, error) {
	if m.SnapshotError != nil {
		return nil, m.SnapshotError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &gallery.Snapshot{
		Entries: make([]gallery.Embedding, 0, len(m.order)),
		People:  make(map[int64]gallery.Person, len(m.order)),
	}
	for _, id := range m.order {
		snap.Entries = append(snap.Entries, gallery.Embedding{
			PersonID: id,
			Vector:   append([]float32(nil), m.vectors[id]...),
		})
		snap.People[id] = m.people[id]
	}
	return snap, nil
}

// Count returns the number of enrolled people.
func (m *Store) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order), nil
}

// FindPeople filters the roster by normalized name.
func (m *Store) FindPeople(ctx context.Context, query string) ([]gallery.Person, error) {
	if m.FindPeopleError != nil {
		return nil, m.FindPeopleError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return gallery.FilterPeople(m.people, query), nil
}
