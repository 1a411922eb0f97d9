package fovindex

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// openMigrated opens path (a pure-Go, cgo-free sqlite file via
// modernc.org/sqlite, matching the rest of this module's dependency
// footprint) and applies every pending migration embedded in
// migrations/*.sql.
func openMigrated(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("fovindex: open %s: %w", path, err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("fovindex: migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("fovindex: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("fovindex: migrate: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		db.Close()
		return nil, fmt.Errorf("fovindex: migrate up: %w", err)
	}

	return db, nil
}

// SaveFOVs persists the current index to a SQLite file at path, one row
// per node id holding its CBOR-encoded pass sequence. Reinstalling a saved
// index via LoadFOVs marks it preloaded, per spec.md's "reinstall implies
// preloaded" contract.
func (x *Index) SaveFOVs(path string) error {
	db, err := openMigrated(path)
	if err != nil {
		return err
	}
	defer db.Close()

	x.mu.RLock()
	snapshot := make(map[int][]Entry, len(x.byNode))
	for id, entries := range x.byNode {
		snapshot[id] = entries
	}
	x.mu.RUnlock()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("fovindex: save: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM fov_pass"); err != nil {
		return fmt.Errorf("fovindex: save: clear: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO fov_pass (node_id, entries) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("fovindex: save: prepare: %w", err)
	}
	defer stmt.Close()

	for nodeID, entries := range snapshot {
		blob, err := cbor.Marshal(entries)
		if err != nil {
			return fmt.Errorf("fovindex: save: encode node %d: %w", nodeID, err)
		}
		if _, err := stmt.Exec(nodeID, blob); err != nil {
			return fmt.Errorf("fovindex: save: insert node %d: %w", nodeID, err)
		}
	}

	return tx.Commit()
}

// LoadFOVs reads a previously saved index from a SQLite file at path and
// installs it, marking the index preloaded.
func (x *Index) LoadFOVs(path string) error {
	db, err := openMigrated(path)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query("SELECT node_id, entries FROM fov_pass")
	if err != nil {
		return fmt.Errorf("fovindex: load: query: %w", err)
	}
	defer rows.Close()

	loaded := make(map[int][]Entry)
	for rows.Next() {
		var nodeID int
		var blob []byte
		if err := rows.Scan(&nodeID, &blob); err != nil {
			return fmt.Errorf("fovindex: load: scan: %w", err)
		}
		var entries []Entry
		if err := cbor.Unmarshal(blob, &entries); err != nil {
			return fmt.Errorf("fovindex: load: decode node %d: %w", nodeID, err)
		}
		loaded[nodeID] = entries
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("fovindex: load: rows: %w", err)
	}

	x.mu.Lock()
	x.byNode = loaded
	x.mu.Unlock()
	x.preloaded.Store(true)
	return nil
}
