// Package store persists the learner's settings and theme in a small
// key-value table.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"lingoblitz/internal/config"
)

// Keys of the persisted entries.
const (
	SettingsKey = "lingoBlitzSettings"
	ThemeKey    = "lingoBlitzTheme"
)

// Theme is the colour scheme preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("not found")

// Store is a string key-value store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dsn and ensures the table exists.
func Open(dsn string) (*Store, error) {
	if dsn != ":memory:" && filepath.Dir(dsn) != "." {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps in-memory databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA busy_timeout = 5000",
		"CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// LoadSettings returns the saved settings, normalised, or ErrNotFound when
// the learner has not onboarded yet.
func (s *Store) LoadSettings(ctx context.Context) (config.Settings, error) {
	raw, err := s.Get(ctx, SettingsKey)
	if err != nil {
		return config.Settings{}, err
	}
	var settings config.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return config.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return config.Normalize(settings), nil
}

func (s *Store) SaveSettings(ctx context.Context, settings config.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return s.Put(ctx, SettingsKey, string(raw))
}

// Theme returns the saved theme, light when unset or unrecognised.
func (s *Store) Theme(ctx context.Context) (Theme, error) {
	v, err := s.Get(ctx, ThemeKey)
	if errors.Is(err, ErrNotFound) {
		return Light, nil
	}
	if err != nil {
		return Light, err
	}
	if Theme(v) == Dark {
		return Dark, nil
	}
	return Light, nil
}

func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	if t != Dark {
		t = Light
	}
	return s.Put(ctx, ThemeKey, string(t))
}
