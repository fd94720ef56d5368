package filestore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/facewatch/internal/gallery"
)

func testInput(name string) gallery.PersonInput {
	return gallery.PersonInput{
		Name:       name,
		ClassName:  "10A",
		RollNumber: "R-" + name,
		Email:      name + "@example.com",
	}
}

func TestAddPersonRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	vector := []float32{0.1, 0.2, 0.3}
	id, err := s.AddPerson(ctx, testInput("John"), vector)
	if err != nil {
		t.Fatalf("AddPerson: %v", err)
	}
	if id != 1 {
		t.Errorf("expected first id 1, got %d", id)
	}

	p, err := s.GetPerson(ctx, id)
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if p == nil {
		t.Fatal("expected person, got nil")
	}
	if p.Name != "John" || p.RollNumber != "R-John" || p.Email != "John@example.com" {
		t.Errorf("unexpected person fields: %+v", p)
	}
	if p.RegisteredAt.IsZero() {
		t.Error("expected registration date to be set")
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", snap.Len())
	}
	got := snap.Entries[0]
	if got.PersonID != id {
		t.Errorf("expected entry for id %d, got %d", id, got.PersonID)
	}
	for i := range vector {
		if got.Vector[i] != vector[i] {
			t.Fatalf("vector mismatch at %d: got %v, want %v", i, got.Vector, vector)
		}
	}
}

func TestGetPersonMissing(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	p, err := s.GetPerson(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for absent id, got %+v", p)
	}
}

func TestNextIDSequential(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	if id, _ := s.NextID(ctx); id != 1 {
		t.Errorf("empty store: expected next id 1, got %d", id)
	}

	for i := range 3 {
		if _, err := s.AddPerson(ctx, testInput(fmt.Sprintf("p%d", i)), []float32{1}); err != nil {
			t.Fatalf("AddPerson: %v", err)
		}
	}
	if id, _ := s.NextID(ctx); id != 4 {
		t.Errorf("after 3 enrollments: expected next id 4, got %d", id)
	}
}

func TestNextIDNonSequentialLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Hand-write rows out of order, simulating a store edited out-of-band.
	f, err := os.OpenFile(filepath.Join(dir, recordsFile), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening CSV: %v", err)
	}
	w := csv.NewWriter(f)
	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range []string{"7", "2", "5"} {
		if err := w.Write([]string{id, "P" + id, "10A", "R" + id, "", "", now}); err != nil {
			t.Fatalf("writing row: %v", err)
		}
	}
	w.Flush()
	f.Close()

	s, err = Open(dir)
	var cerr *gallery.ConsistencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected consistency error for records without vectors, got %v", err)
	}

	id, err := s.NextID(context.Background())
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if id != 8 {
		t.Errorf("expected next id max+1 = 8, got %d", id)
	}
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id1, err := s.AddPerson(ctx, testInput("Alice"), []float32{1, 2})
	if err != nil {
		t.Fatalf("AddPerson: %v", err)
	}
	id2, err := s.AddPerson(ctx, testInput("Bob"), []float32{3, 4})
	if err != nil {
		t.Fatalf("AddPerson: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("expected count 2, got %d (%v)", count, err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	// Insertion order survives the reload.
	if snap.Entries[0].PersonID != id1 || snap.Entries[1].PersonID != id2 {
		t.Errorf("expected order [%d %d], got [%d %d]",
			id1, id2, snap.Entries[0].PersonID, snap.Entries[1].PersonID)
	}
}

func TestOpenSurfacesOrphanedEmbedding(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.AddPerson(ctx, testInput("Alice"), []float32{1}); err != nil {
		t.Fatalf("AddPerson: %v", err)
	}

	// Truncate the CSV back to just the header, leaving the gob vector
	// without its record.
	f, err := os.Create(filepath.Join(dir, recordsFile))
	if err != nil {
		t.Fatalf("truncating CSV: %v", err)
	}
	w := csv.NewWriter(f)
	w.Write([]string{"id", "name", "class_name", "roll_number", "email", "phone", "registration_date"})
	w.Flush()
	f.Close()

	s, err = Open(dir)
	var cerr *gallery.ConsistencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *gallery.ConsistencyError, got %v", err)
	}
	if len(cerr.EmbeddingsWithoutRecord) != 1 || cerr.EmbeddingsWithoutRecord[0] != 1 {
		t.Errorf("expected embedding orphan [1], got %v", cerr.EmbeddingsWithoutRecord)
	}

	// The store still works and the orphan is excluded from snapshots.
	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Len() != 0 {
		t.Errorf("expected empty snapshot, got %d entries", snap.Len())
	}
	// The orphaned id is still burned.
	if id, _ := s.NextID(ctx); id != 2 {
		t.Errorf("expected next id 2, got %d", id)
	}
}

func TestAddPersonInvalidInput(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	if _, err := s.AddPerson(ctx, gallery.PersonInput{}, []float32{1}); !errors.Is(err, gallery.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.AddPerson(ctx, testInput("A"), nil); !errors.Is(err, gallery.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty vector, got %v", err)
	}
}

func TestConcurrentAddAndSnapshot(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Reader: every snapshot must pair each entry with its record.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap, err := s.Snapshot(ctx)
			if err != nil {
				t.Errorf("Snapshot: %v", err)
				return
			}
			for _, e := range snap.Entries {
				if snap.Person(e.PersonID) == nil {
					t.Errorf("snapshot entry %d has no record", e.PersonID)
					return
				}
				if len(e.Vector) == 0 {
					t.Errorf("snapshot entry %d has empty vector", e.PersonID)
					return
				}
			}
		}
	}()

	for i := range 20 {
		if _, err := s.AddPerson(ctx, testInput(fmt.Sprintf("p%d", i)), []float32{float32(i)}); err != nil {
			t.Fatalf("AddPerson: %v", err)
		}
	}
	close(stop)
	wg.Wait()

	count, err := s.Count(ctx)
	if err != nil || count != 20 {
		t.Fatalf("expected count 20, got %d (%v)", count, err)
	}
}

func TestFindPeople(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	if _, err := s.AddPerson(ctx, testInput("Jiří"), []float32{1}); err != nil {
		t.Fatalf("AddPerson: %v", err)
	}
	if _, err := s.AddPerson(ctx, testInput("John"), []float32{2}); err != nil {
		t.Fatalf("AddPerson: %v", err)
	}

	people, err := s.FindPeople(ctx, "jiri")
	if err != nil {
		t.Fatalf("FindPeople: %v", err)
	}
	if len(people) != 1 || people[0].Name != "Jiří" {
		t.Errorf("expected Jiří only, got %v", people)
	}

	all, err := s.FindPeople(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 people, got %v (%v)", all, err)
	}
}
