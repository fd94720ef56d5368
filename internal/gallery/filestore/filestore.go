// Package filestore implements the gallery store on top of two local files:
// a CSV table of person records and a gob-encoded map of face embeddings.
// The two halves are written separately, so a crash between writes can leave
// an orphaned record; Open reports that as a *gallery.ConsistencyError
// instead of silently dropping it.
package filestore

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kozaktomas/facewatch/internal/gallery"
)

const (
	recordsFile    = "person_details.csv"
	embeddingsFile = "face_encodings.gob"
)

var csvHeader = []string{"id", "name", "class_name", "roll_number", "email", "phone", "registration_date"}

// Store is a file-backed gallery store. All mutation goes through a single
// mutex; snapshots are served from an in-memory copy that is rebuilt only
// after both halves of a write are durable, so readers never observe a
// half-written enrollment.
type Store struct {
	dir string

	mu       sync.RWMutex
	people   map[int64]gallery.Person
	vectors  map[int64][]float32
	rowOrder map[int64]int // CSV row position per id, for rebuilding order
	order    []int64       // insertion order of fully-enrolled ids
	maxID    int64         // covers orphaned record ids too, so ids are never reused
}

// Open loads the store from dir, creating the directory and an empty CSV on
// first use. When the record and embedding halves disagree, Open returns the
// usable store together with a *gallery.ConsistencyError describing the
// orphans; callers decide whether to warn or abort.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &Store{
		dir:     dir,
		people:  make(map[int64]gallery.Person),
		vectors: make(map[int64][]float32),
	}

	if err := s.initCSV(); err != nil {
		return nil, err
	}
	if err := s.loadRecords(); err != nil {
		return nil, err
	}
	if err := s.loadVectors(); err != nil {
		return nil, err
	}

	// Insertion order follows the CSV row order, skipping orphans.
	for _, p := range s.sortedByFileOrder() {
		if _, ok := s.vectors[p.ID]; ok {
			s.order = append(s.order, p.ID)
		}
	}

	if err := gallery.CheckConsistency(s.people, s.vectors); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Store) recordsPath() string    { return filepath.Join(s.dir, recordsFile) }
func (s *Store) embeddingsPath() string { return filepath.Join(s.dir, embeddingsFile) }

func (s *Store) initCSV() error {
	if _, err := os.Stat(s.recordsPath()); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking records file: %w", err)
	}

	f, err := os.Create(s.recordsPath())
	if err != nil {
		return fmt.Errorf("creating records file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV header: %w", err)
	}
	return nil
}

// sortedByFileOrder returns loaded records in CSV row order.
func (s *Store) sortedByFileOrder() []gallery.Person {
	out := make([]gallery.Person, 0, len(s.people))
	for _, p := range s.people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.rowOrder[out[i].ID] < s.rowOrder[out[j].ID]
	})
	return out
}

func (s *Store) loadRecords() error {
	f, err := os.Open(s.recordsPath())
	if err != nil {
		return fmt.Errorf("opening records file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("reading records file: %w", err)
	}

	s.rowOrder = make(map[int64]int)
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		p, err := parseRecord(row)
		if err != nil {
			return fmt.Errorf("records file row %d: %w", i+1, err)
		}
		s.people[p.ID] = p
		s.rowOrder[p.ID] = i
		if p.ID > s.maxID {
			s.maxID = p.ID
		}
	}
	return nil
}

func (s *Store) loadVectors() error {
	f, err := os.Open(s.embeddingsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening embeddings file: %w", err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&s.vectors); err != nil {
		return fmt.Errorf("decoding embeddings file: %w", err)
	}
	for id := range s.vectors {
		if id > s.maxID {
			s.maxID = id
		}
	}
	return nil
}

func parseRecord(row []string) (gallery.Person, error) {
	if len(row) != len(csvHeader) {
		return gallery.Person{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return gallery.Person{}, fmt.Errorf("parsing id %q: %w", row[0], err)
	}
	registered, err := time.Parse(time.RFC3339, row[6])
	if err != nil {
		return gallery.Person{}, fmt.Errorf("parsing registration date %q: %w", row[6], err)
	}
	return gallery.Person{
		ID:           id,
		Name:         row[1],
		ClassName:    row[2],
		RollNumber:   row[3],
		Email:        row[4],
		Phone:        row[5],
		RegisteredAt: registered,
	}, nil
}

func formatRecord(p gallery.Person) []string {
	return []string{
		strconv.FormatInt(p.ID, 10),
		p.Name,
		p.ClassName,
		p.RollNumber,
		p.Email,
		p.Phone,
		p.RegisteredAt.UTC().Format(time.RFC3339),
	}
}

// NextID returns 1 for an empty gallery, max(existing ids)+1 otherwise.
func (s *Store) NextID(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxID + 1, nil
}

// AddPerson persists the record, then the embedding, then publishes the
// enrollment to readers. A failure of either half is reported as a
// *gallery.StorageError and leaves the in-memory view unchanged.
func (s *Store) AddPerson(ctx context.Context, input gallery.PersonInput, vector []float32) (int64, error) {
	if err := gallery.ValidateInput(input); err != nil {
		return 0, err
	}
	if len(vector) == 0 {
		return 0, fmt.Errorf("%w: empty embedding vector", gallery.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	person := gallery.Person{
		ID:           s.maxID + 1,
		Name:         input.Name,
		ClassName:    input.ClassName,
		RollNumber:   input.RollNumber,
		Email:        input.Email,
		Phone:        input.Phone,
		RegisteredAt: time.Now().UTC(),
	}

	if err := s.appendRecord(person); err != nil {
		return 0, &gallery.StorageError{Op: "record", Err: err}
	}

	vectors := make(map[int64][]float32, len(s.vectors)+1)
	for id, v := range s.vectors {
		vectors[id] = v
	}
	vectors[person.ID] = append([]float32(nil), vector...)

	if err := s.writeVectors(vectors); err != nil {
		// The record row is already on disk; the next Open reports it as an
		// orphan rather than this store claiming a successful enrollment.
		return 0, &gallery.StorageError{Op: "embedding", Err: err}
	}

	s.people[person.ID] = person
	s.vectors = vectors
	s.order = append(s.order, person.ID)
	s.maxID = person.ID
	s.rowOrder[person.ID] = len(s.rowOrder) + 1
	return person.ID, nil
}

func (s *Store) appendRecord(p gallery.Person) error {
	f, err := os.OpenFile(s.recordsPath(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening records file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(formatRecord(p)); err != nil {
		return fmt.Errorf("writing record row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing record row: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing records file: %w", err)
	}
	return nil
}

// writeVectors rewrites the whole gob file through a temp file and rename so
// a crash mid-write never corrupts existing embeddings.
func (s *Store) writeVectors(vectors map[int64][]float32) error {
	tmp, err := os.CreateTemp(s.dir, embeddingsFile+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp embeddings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(vectors); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding embeddings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing embeddings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing embeddings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.embeddingsPath()); err != nil {
		return fmt.Errorf("replacing embeddings file: %w", err)
	}
	return nil
}

// GetPerson returns nil, nil when the id is not enrolled.
func (s *Store) GetPerson(ctx context.Context, id int64) (*gallery.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.people[id]; ok {
		return &p, nil
	}
	return nil, nil
}

// Snapshot copies the current fully-enrolled entries in insertion order.
func (s *Store) Snapshot(ctx context.Context) (*gallery.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &gallery.Snapshot{
		Entries: make([]gallery.Embedding, 0, len(s.order)),
		People:  make(map[int64]gallery.Person, len(s.order)),
	}
	for _, id := range s.order {
		snap.Entries = append(snap.Entries, gallery.Embedding{
			PersonID: id,
			Vector:   append([]float32(nil), s.vectors[id]...),
		})
		snap.People[id] = s.people[id]
	}
	return snap, nil
}

// Count returns the number of fully-enrolled people.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

// FindPeople filters the roster by normalized name.
func (s *Store) FindPeople(ctx context.Context, query string) ([]gallery.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gallery.FilterPeople(s.people, query), nil
}
