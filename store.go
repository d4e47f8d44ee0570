package geonamesdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

const (
	tableName = "cities"
	indexName = "idx_lat_lng"

	createTableSQL = `CREATE TABLE cities (
    name TEXT,
    country TEXT,
    lat REAL,
    lng REAL
)`
	createIndexSQL = `CREATE INDEX idx_lat_lng ON cities (lat, lng)`
	insertSQL      = `INSERT INTO cities VALUES (?, ?, ?, ?)`
	tableExistsSQL = `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
)

// ErrTableExists is returned when the target store already has a cities table.
var ErrTableExists = errors.New("cities table already exists")

// store is a single SQLite connection holding one open transaction for the
// whole import. Nothing is visible in the file until commit.
type store struct {
	path    string
	created bool // the file did not exist before openStore
	db      *sql.DB
	tx      *sql.Tx
	insert  *sql.Stmt
}

// openStore opens or creates the SQLite file at path and begins the import transaction.
func openStore(ctx context.Context, path string) (*store, error) {
	_, statErr := os.Stat(path)
	s := &store{path: path, created: errors.Is(statErr, os.ErrNotExist)}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s.db = db

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		s.abort()
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	s.tx = tx
	return s, nil
}

// createTable defines the cities table. An existing table is a hard failure.
func (s *store) createTable(ctx context.Context) error {
	var n int
	if err := s.tx.QueryRowContext(ctx, tableExistsSQL, tableName).Scan(&n); err != nil {
		return fmt.Errorf("inspecting schema: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%s: %w", s.path, ErrTableExists)
	}
	if _, err := s.tx.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	stmt, err := s.tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	s.insert = stmt
	return nil
}

func (s *store) insertCity(ctx context.Context, c City) error {
	if _, err := s.insert.ExecContext(ctx, c.Name, c.Country, c.Lat, c.Lng); err != nil {
		return fmt.Errorf("inserting %q: %w", c.Name, err)
	}
	return nil
}

// createIndex builds the coordinate index. Call it once, after all rows are in.
func (s *store) createIndex(ctx context.Context) error {
	if _, err := s.tx.ExecContext(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	return nil
}

// commit makes the import durable and releases the connection.
func (s *store) commit() error {
	if s.insert != nil {
		s.insert.Close()
	}
	if err := s.tx.Commit(); err != nil {
		s.tx = nil
		s.abort()
		return fmt.Errorf("committing: %w", err)
	}
	s.tx = nil
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// abort rolls back, closes, and removes the file if this import created it.
// A store that existed beforehand is left as it was.
func (s *store) abort() {
	if s.insert != nil {
		s.insert.Close()
	}
	if s.tx != nil {
		s.tx.Rollback()
	}
	if s.db != nil {
		s.db.Close()
	}
	if s.created {
		os.Remove(s.path) // best-effort
		os.Remove(s.path + "-journal")
	}
}
