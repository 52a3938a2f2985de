// Package store provides a SQLite-backed cache of the last loaded dashboard
// snapshot per user, used for offline rendering and warm starts.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/subkill/internal/model"
	"github.com/theirongolddev/subkill/internal/state"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed snapshot caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveSnapshot stores the snapshot for its user, replacing any previous one.
// The modal binding is session state and is not persisted.
func (c *Cache) SaveSnapshot(s state.Snapshot) error {
	if s.UserID <= 0 {
		return errors.New("snapshot has no user id")
	}

	userJSON, err := encodeSection(s.User)
	if err != nil {
		return err
	}
	subs := s.Subscriptions
	if subs == nil {
		subs = []model.Subscription{}
	}
	subsJSON, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("encoding subscriptions: %w", err)
	}
	analyticsJSON, err := encodeSection(s.Analytics)
	if err != nil {
		return err
	}
	popularJSON, err := encodeSection(s.Popular)
	if err != nil {
		return err
	}
	achievementsJSON, err := encodeSection(s.Achievements)
	if err != nil {
		return err
	}

	loadedAt := ""
	if !s.LoadedAt.IsZero() {
		loadedAt = s.LoadedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err = c.db.Exec(`INSERT OR REPLACE INTO snapshots
		(user_id, generation, loaded_at, user_json, subscriptions_json,
		 analytics_json, popular_json, achievements_json, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, int64(s.Generation), loadedAt, userJSON, string(subsJSON),
		analyticsJSON, popularJSON, achievementsJSON, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// LoadSnapshot reads the cached snapshot for a user. ok is false when nothing
// has been cached yet.
func (c *Cache) LoadSnapshot(userID int64) (snap state.Snapshot, ok bool, err error) {
	var (
		generation                                     int64
		loadedAt, userJSON, analyticsJSON, popularJSON sql.NullString
		achievementsJSON                               sql.NullString
		subsJSON                                       string
	)
	err = c.db.QueryRow(`SELECT generation, loaded_at, user_json, subscriptions_json,
		analytics_json, popular_json, achievements_json
		FROM snapshots WHERE user_id = ?`, userID).Scan(
		&generation, &loadedAt, &userJSON, &subsJSON, &analyticsJSON, &popularJSON, &achievementsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return state.Snapshot{}, false, nil
	}
	if err != nil {
		return state.Snapshot{}, false, err
	}

	snap = state.Snapshot{UserID: userID, Generation: uint64(generation)}
	if loadedAt.Valid && loadedAt.String != "" {
		snap.LoadedAt, _ = time.Parse(time.RFC3339Nano, loadedAt.String)
	}
	if err := json.Unmarshal([]byte(subsJSON), &snap.Subscriptions); err != nil {
		return state.Snapshot{}, false, fmt.Errorf("decoding subscriptions: %w", err)
	}
	if snap.User, err = decodeSection[model.User](userJSON); err != nil {
		return state.Snapshot{}, false, err
	}
	if snap.Analytics, err = decodeSection[model.Analytics](analyticsJSON); err != nil {
		return state.Snapshot{}, false, err
	}
	if snap.Popular, err = decodeSection[model.PopularCatalog](popularJSON); err != nil {
		return state.Snapshot{}, false, err
	}
	if snap.Achievements, err = decodeSection[model.Achievements](achievementsJSON); err != nil {
		return state.Snapshot{}, false, err
	}
	return snap, true, nil
}

// DeleteSnapshot removes a user's cached snapshot and reload history.
func (c *Cache) DeleteSnapshot(userID int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM snapshots WHERE user_id = ?", userID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM reload_log WHERE user_id = ?", userID); err != nil {
		return err
	}
	return tx.Commit()
}

// SnapshotCount returns the number of cached users.
func (c *Cache) SnapshotCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count)
	return count, err
}

// ReloadEntry is one row of the reload history.
type ReloadEntry struct {
	At     time.Time
	OK     bool
	Failed []string
}

// RecordReload appends a reload outcome for a user. failed names the sections
// that could not be fetched; empty means the reload fully succeeded.
func (c *Cache) RecordReload(userID int64, at time.Time, failed []string) error {
	ok := 0
	if len(failed) == 0 {
		ok = 1
	}
	_, err := c.db.Exec(`INSERT INTO reload_log (user_id, reloaded_at, ok, failed_sections)
		VALUES (?, ?, ?, ?)`,
		userID, at.UTC().Format(time.RFC3339Nano), ok, strings.Join(failed, ","),
	)
	return err
}

// RecentReloads returns up to limit reload outcomes, newest first.
func (c *Cache) RecentReloads(userID int64, limit int) ([]ReloadEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := c.db.Query(`SELECT reloaded_at, ok, failed_sections
		FROM reload_log WHERE user_id = ?
		ORDER BY reloaded_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []ReloadEntry
	for rows.Next() {
		var at string
		var ok int
		var failed sql.NullString
		if err := rows.Scan(&at, &ok, &failed); err != nil {
			return nil, err
		}
		e := ReloadEntry{OK: ok != 0}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		if failed.Valid && failed.String != "" {
			e.Failed = strings.Split(failed.String, ",")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func encodeSection[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding %T: %w", v, err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeSection[T any](ns sql.NullString) (*T, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(ns.String), &v); err != nil {
		return nil, fmt.Errorf("decoding %T: %w", v, err)
	}
	return &v, nil
}
