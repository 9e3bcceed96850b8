package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a SQLite database. Entities are rows with
// a JSON fields column; edges are rows keyed by predicate and both
// endpoints. The database itself is the index; no in-memory projection
// is kept.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite-backed store at the given DSN and
// bootstraps the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an existing database handle. The schema must already
// exist or be created via CreateTables.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTables bootstraps the entity and edge tables.
func (s *SQLiteStore) CreateTables(ctx context.Context) error {
	return s.createTables(ctx)
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS entities (
			entity_type TEXT NOT NULL,
			entity_id   TEXT NOT NULL,
			data        TEXT NOT NULL DEFAULT '{}',
			PRIMARY KEY (entity_type, entity_id)
		);

		CREATE TABLE IF NOT EXISTS edges (
			predicate TEXT NOT NULL,
			from_type TEXT NOT NULL,
			from_id   TEXT NOT NULL,
			to_type   TEXT NOT NULL,
			to_id     TEXT NOT NULL,
			data      TEXT,
			PRIMARY KEY (predicate, from_type, from_id, to_type, to_id)
		);

		CREATE INDEX IF NOT EXISTS idx_edges_to
			ON edges (predicate, to_type, to_id);
	`)
	if err != nil {
		return fmt.Errorf("creating graph tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, url string) (*Entity, error) {
	entityType, id, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	var data string
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM entities WHERE entity_type = ? AND entity_id = ?`,
		entityType, id)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying entity %s: %w", url, err)
	}

	e := &Entity{ID: id, Type: entityType}
	if err := json.Unmarshal([]byte(data), &e.Fields); err != nil {
		return nil, fmt.Errorf("decoding entity %s: %w", url, err)
	}
	return e, nil
}

func (s *SQLiteStore) Related(ctx context.Context, fromURL, predicate string, direction Direction) ([]Entity, error) {
	entityType, id, err := ParseURL(fromURL)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT e.entity_type, e.entity_id, e.data
		FROM edges g
		JOIN entities e ON e.entity_type = g.to_type AND e.entity_id = g.to_id
		WHERE g.predicate = ? AND g.from_type = ? AND g.from_id = ?
		ORDER BY g.rowid`
	if direction == DirectionReverse {
		query = `
		SELECT e.entity_type, e.entity_id, e.data
		FROM edges g
		JOIN entities e ON e.entity_type = g.from_type AND e.entity_id = g.from_id
		WHERE g.predicate = ? AND g.to_type = ? AND g.to_id = ?
		ORDER BY g.rowid`
	}

	rows, err := s.db.QueryContext(ctx, query, predicate, entityType, id)
	if err != nil {
		return nil, fmt.Errorf("querying %s edges of %s: %w", predicate, fromURL, err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		var e Entity
		var data string
		if err := rows.Scan(&e.Type, &e.ID, &data); err != nil {
			return nil, fmt.Errorf("scanning related entity: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Fields); err != nil {
			return nil, fmt.Errorf("decoding related entity %s/%s: %w", e.Type, e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Relate(ctx context.Context, edge Edge) error {
	fromType, fromID, err := ParseURL(edge.From)
	if err != nil {
		return err
	}
	toType, toID, err := ParseURL(edge.To)
	if err != nil {
		return err
	}

	var data any
	if edge.Data != nil {
		b, err := json.Marshal(edge.Data)
		if err != nil {
			return fmt.Errorf("encoding edge data: %w", err)
		}
		data = string(b)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO edges (predicate, from_type, from_id, to_type, to_id, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		edge.Predicate, fromType, fromID, toType, toID, data)
	if err != nil {
		return fmt.Errorf("inserting edge: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Unrelate(ctx context.Context, from, predicate, to string) (bool, error) {
	fromType, fromID, err := ParseURL(from)
	if err != nil {
		return false, err
	}
	toType, toID, err := ParseURL(to)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM edges
		WHERE predicate = ? AND from_type = ? AND from_id = ? AND to_type = ? AND to_id = ?`,
		predicate, fromType, fromID, toType, toID)
	if err != nil {
		return false, fmt.Errorf("deleting edge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Update(ctx context.Context, url string, data map[string]any) (*Entity, error) {
	existing, err := s.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &PreconditionError{URL: url}
	}

	if existing.Fields == nil {
		existing.Fields = make(map[string]any)
	}
	for k, v := range data {
		existing.Fields[k] = v
	}

	b, err := json.Marshal(existing.Fields)
	if err != nil {
		return nil, fmt.Errorf("encoding entity fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE entities SET data = ? WHERE entity_type = ? AND entity_id = ?`,
		string(b), existing.Type, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("updating entity %s: %w", url, err)
	}
	return existing, nil
}

func (s *SQLiteStore) Create(ctx context.Context, e Entity) (*Entity, error) {
	fields := e.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding entity fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (entity_type, entity_id, data) VALUES (?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET data = excluded.data`,
		normalizeType(e.Type), e.ID, string(b))
	if err != nil {
		return nil, fmt.Errorf("inserting entity %s/%s: %w", e.Type, e.ID, err)
	}
	stored := e.Clone()
	stored.Type = normalizeType(e.Type)
	return &stored, nil
}
