package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/facewatch/internal/gallery"
)

// enrollLockID serializes id assignment across concurrent enrollments.
const enrollLockID = 0xFACE

// Store is a PostgreSQL-backed gallery store. The record and embedding rows
// are written in one transaction, so a torn enrollment cannot originate here;
// CheckConsistency still guards against stores populated out-of-band.
type Store struct {
	pool *Pool
}

// NewStore creates a gallery store on top of an existing pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// NextID returns 1 for an empty gallery, max(existing ids)+1 otherwise.
// Orphaned embedding ids are counted too so ids are never reused.
func (s *Store) NextID(ctx context.Context) (int64, error) {
	var next int64
	err := s.pool.db.QueryRowContext(ctx, `
		SELECT GREATEST(
			COALESCE((SELECT MAX(id) FROM people), 0),
			COALESCE((SELECT MAX(person_id) FROM face_embeddings), 0)
		) + 1
	`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("query next id: %w", err)
	}
	return next, nil
}

// AddPerson assigns the next id and persists both halves. Both inserts run
// in one transaction under an advisory lock on id assignment.
func (s *Store) AddPerson(ctx context.Context, input gallery.PersonInput, vector []float32) (int64, error) {
	if err := gallery.ValidateInput(input); err != nil {
		return 0, err
	}
	if len(vector) == 0 {
		return 0, fmt.Errorf("%w: empty embedding vector", gallery.ErrInvalidInput)
	}

	tx, err := s.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &gallery.StorageError{Op: "record", Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", enrollLockID); err != nil {
		return 0, &gallery.StorageError{Op: "record", Err: fmt.Errorf("acquire enroll lock: %w", err)}
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO people (id, name, class_name, roll_number, email, phone, registered_at)
		SELECT GREATEST(
			COALESCE((SELECT MAX(id) FROM people), 0),
			COALESCE((SELECT MAX(person_id) FROM face_embeddings), 0)
		) + 1, $1, $2, $3, $4, $5, $6
		RETURNING id
	`, input.Name, input.ClassName, input.RollNumber, input.Email, input.Phone, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, &gallery.StorageError{Op: "record", Err: err}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO face_embeddings (person_id, embedding, dim)
		VALUES ($1, $2, $3)
	`, id, pgvector.NewVector(vector), len(vector))
	if err != nil {
		return 0, &gallery.StorageError{Op: "embedding", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &gallery.StorageError{Op: "embedding", Err: fmt.Errorf("commit enrollment: %w", err)}
	}
	return id, nil
}

// GetPerson returns nil, nil when the id is not enrolled.
func (s *Store) GetPerson(ctx context.Context, id int64) (*gallery.Person, error) {
	row := s.pool.db.QueryRowContext(ctx, `
		SELECT id, name, class_name, roll_number, email, phone, registered_at
		FROM people WHERE id = $1
	`, id)

	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query person: %w", err)
	}
	return &p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (gallery.Person, error) {
	var p gallery.Person
	err := row.Scan(&p.ID, &p.Name, &p.ClassName, &p.RollNumber, &p.Email, &p.Phone, &p.RegisteredAt)
	return p, err
}

// Snapshot returns all fully-enrolled (id, embedding) pairs in id order,
// which matches insertion order since ids are assigned monotonically.
func (s *Store) Snapshot(ctx context.Context) (*gallery.Snapshot, error) {
	rows, err := s.pool.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.class_name, p.roll_number, p.email, p.phone, p.registered_at, e.embedding
		FROM people p
		JOIN face_embeddings e ON e.person_id = p.id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	snap := &gallery.Snapshot{People: make(map[int64]gallery.Person)}
	for rows.Next() {
		var p gallery.Person
		var vec pgvector.Vector
		if err := rows.Scan(&p.ID, &p.Name, &p.ClassName, &p.RollNumber, &p.Email, &p.Phone, &p.RegisteredAt, &vec); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Entries = append(snap.Entries, gallery.Embedding{PersonID: p.ID, Vector: vec.Slice()})
		snap.People[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snap, nil
}

// Count returns the number of fully-enrolled people.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM people p JOIN face_embeddings e ON e.person_id = p.id
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return count, nil
}

// FindPeople filters the roster by normalized name. Normalization happens in
// Go so the diacritics rules match the file store exactly.
func (s *Store) FindPeople(ctx context.Context, query string) ([]gallery.Person, error) {
	rows, err := s.pool.db.QueryContext(ctx, `
		SELECT id, name, class_name, roll_number, email, phone, registered_at
		FROM people ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	people := make(map[int64]gallery.Person)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person row: %w", err)
		}
		people[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people rows: %w", err)
	}
	return gallery.FilterPeople(people, query), nil
}

// CheckConsistency reports ids present in one table but absent from the
// other, for stores populated or repaired out-of-band.
func (s *Store) CheckConsistency(ctx context.Context) error {
	people, err := s.idSet(ctx, "SELECT id FROM people")
	if err != nil {
		return err
	}
	vectors, err := s.idSet(ctx, "SELECT person_id FROM face_embeddings")
	if err != nil {
		return err
	}

	p := make(map[int64]gallery.Person, len(people))
	for id := range people {
		p[id] = gallery.Person{ID: id}
	}
	v := make(map[int64][]float32, len(vectors))
	for id := range vectors {
		v[id] = nil
	}
	return gallery.CheckConsistency(p, v)
}

func (s *Store) idSet(ctx context.Context, query string) (map[int64]struct{}, error) {
	rows, err := s.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}
