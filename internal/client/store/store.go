// Package store implements the local entity store on SQLite: per-table
// repositories, the cascade delete engine, the tombstone log and the cached
// sync state. FK edges between tables are by convention only; cascades are
// walked manually (see cascade.go).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/store/migrations"
)

// Store bundles the per-table repositories over one database handle.
type Store struct {
	db *sql.DB

	Projects   *ProjectRepo
	Characters *CharacterRepo
	Images     *ImageRepo
	Sections   *SectionRepo
	Editions   *EditionRepo
	Pages      *ScriptPageRepo
	Panels     *PanelRepo
	Tombstones *TombstoneRepo
	State      *SyncStateRepo
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the local database at dsn, migrates it and returns
// a ready Store. Use ":memory:" for tests.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite takes one writer at a time; a single pooled connection also
	// keeps ":memory:" databases from silently splitting per connection.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newStore(db), nil
}

func newStore(db *sql.DB) *Store {
	return &Store{
		db:         db,
		Projects:   NewProjectRepo(db),
		Characters: NewCharacterRepo(db),
		Images:     NewImageRepo(db),
		Sections:   NewSectionRepo(db),
		Editions:   NewEditionRepo(db),
		Pages:      NewScriptPageRepo(db),
		Panels:     NewPanelRepo(db),
		Tombstones: NewTombstoneRepo(db),
		State:      NewSyncStateRepo(db),
	}
}

// DB exposes the underlying handle for transaction scoping.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Column helpers shared by the repositories. Instants are stored as RFC 3339
// UTC text with a fixed-width fraction so lexical ordering in SQL matches
// chronological ordering; nested value bags as JSON text; optional strings
// as NULLs.

const dbTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func dbTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

func parseDBTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func jsonCol(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

func fromJSONCol(s string, v any) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}
