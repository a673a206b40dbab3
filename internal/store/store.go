// Package store implements the durable key-value persistence layer.
//
// The engine treats persistence as a synchronous, crash-consistent store of
// three named documents: the ordered record list, the favorites id set, and
// the settings blob. The SQLite implementation keeps each document as one
// JSON value in a kv table; writes go through a single UPSERT inside the
// caller's critical section, so a reader always observes a complete document.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"go.clipvault.dev/clipvault/internal/message"
	"go.clipvault.dev/clipvault/internal/record"
)

// Document paths.
const (
	PathRecords   = "records"
	PathFavorites = "favorites"
	PathSettings  = "settings"
)

// Store is the durable persistence boundary.
type Store interface {
	Records() ([]record.Record, error)
	SetRecords([]record.Record) error

	Favorites() (map[string]bool, error)
	SetFavorites(map[string]bool) error

	Settings() (message.Settings, error)
	SetSettings(message.Settings) error

	Close() error
}

type kvEntry struct {
	bun.BaseModel `bun:"table:kv"`

	Path  string `bun:"path,pk"`
	Value []byte `bun:"value,notnull"`
}

// SQLite is a Store backed by a single-file SQLite database.
type SQLite struct {
	db *bun.DB
}

// Open opens (creating if needed) the SQLite store at path.
func Open(path string) (*SQLite, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*kvEntry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) get(path string, out any) (bool, error) {
	var e kvEntry
	err := s.db.NewSelect().Model(&e).Where("path = ?", path).Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", path, err)
	}
	if err := json.Unmarshal(e.Value, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (s *SQLite) set(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	e := kvEntry{Path: path, Value: raw}
	_, err = s.db.NewInsert().
		Model(&e).
		On("CONFLICT (path) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(context.Background())
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

// Records returns the stored record list, oldest last.
func (s *SQLite) Records() ([]record.Record, error) {
	var recs []record.Record
	if _, err := s.get(PathRecords, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// SetRecords replaces the stored record list.
func (s *SQLite) SetRecords(recs []record.Record) error {
	if recs == nil {
		recs = []record.Record{}
	}
	return s.set(PathRecords, recs)
}

// Favorites returns the favorite id set.
func (s *SQLite) Favorites() (map[string]bool, error) {
	var ids []string
	if _, err := s.get(PathFavorites, &ids); err != nil {
		return nil, err
	}
	favs := make(map[string]bool, len(ids))
	for _, id := range ids {
		favs[id] = true
	}
	return favs, nil
}

// SetFavorites replaces the favorite id set.
func (s *SQLite) SetFavorites(favs map[string]bool) error {
	ids := make([]string, 0, len(favs))
	for id, on := range favs {
		if on {
			ids = append(ids, id)
		}
	}
	return s.set(PathFavorites, ids)
}

// Settings returns the stored settings, or defaults on first run.
func (s *SQLite) Settings() (message.Settings, error) {
	settings := message.DefaultSettings()
	ok, err := s.get(PathSettings, &settings)
	if err != nil {
		return settings, err
	}
	if !ok {
		// First run: persist the defaults so front-ends see them too.
		if err := s.set(PathSettings, settings); err != nil {
			return settings, err
		}
	}
	return settings, nil
}

// SetSettings replaces the stored settings.
func (s *SQLite) SetSettings(settings message.Settings) error {
	return s.set(PathSettings, settings)
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
