// Package cache is the device-local mirror of the active session: a single
// serialized snapshot per user in a SQLite file, used as a resume hint. The
// database is always the source of truth; snapshots expire lazily after 24
// hours.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/ironlog/internal/models"
	_ "modernc.org/sqlite"
)

// SnapshotTTL is how long a snapshot stays loadable after its last write.
const SnapshotTTL = 24 * time.Hour

// SnapshotStore holds one active-session snapshot per user.
type SnapshotStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (or creates) the snapshot database at dir/snapshots.db.
func Open(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "snapshots.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS session_snapshots (
		user_id  INTEGER PRIMARY KEY,
		saved_at INTEGER NOT NULL,
		doc      TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot table: %w", err)
	}

	return &SnapshotStore{db: db, ttl: SnapshotTTL, now: time.Now}, nil
}

// Save writes the user's snapshot, replacing any previous one. The write
// timestamp is embedded so Load can expire it.
func (s *SnapshotStore) Save(userID int, sess *models.Session) error {
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO session_snapshots (user_id, saved_at, doc) VALUES (?, ?, ?)`,
		userID, s.now().Unix(), string(doc),
	)
	return err
}

// Load returns the user's snapshot, or nil if none exists. A snapshot older
// than the TTL is treated as absent and deleted on the spot.
func (s *SnapshotStore) Load(userID int) (*models.Session, error) {
	var savedAt int64
	var doc string
	err := s.db.QueryRow(
		`SELECT saved_at, doc FROM session_snapshots WHERE user_id = ?`,
		userID,
	).Scan(&savedAt, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.now().Sub(time.Unix(savedAt, 0)) > s.ttl {
		if err := s.Clear(userID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(doc), &sess); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &sess, nil
}

// Clear deletes the user's snapshot if present.
func (s *SnapshotStore) Clear(userID int) error {
	_, err := s.db.Exec(`DELETE FROM session_snapshots WHERE user_id = ?`, userID)
	return err
}

// Exists reports whether an unexpired snapshot is stored for the user.
func (s *SnapshotStore) Exists(userID int) (bool, error) {
	var savedAt int64
	err := s.db.QueryRow(
		`SELECT saved_at FROM session_snapshots WHERE user_id = ?`,
		userID,
	).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.now().Sub(time.Unix(savedAt, 0)) <= s.ttl, nil
}

// Close closes the snapshot database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
