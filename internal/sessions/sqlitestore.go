package sessions

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	token         TEXT PRIMARY KEY,
	stage_index   INTEGER NOT NULL DEFAULT 0,
	mode          TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	token   TEXT NOT NULL REFERENCES sessions(token),
	stage   INTEGER NOT NULL,
	role    TEXT NOT NULL,
	content TEXT NOT NULL,
	images  TEXT NOT NULL DEFAULT '[]',
	ts      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_token ON messages(token);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const activeKey = "active_session"

// Fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists sessions in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and migrates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under the CLI.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Create inserts a new active session.
func (s *SQLiteStore) Create(token string) (*Session, error) {
	if err := validToken(token); err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &Session{
		Token:     token,
		Status:    SessionActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO sessions (token, stage_index, mode, status, message_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		sess.Token, sess.StageIndex, sess.Mode, string(sess.Status), formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Get reads a session by token.
func (s *SQLiteStore) Get(token string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT token, stage_index, mode, status, message_count, created_at, updated_at
		 FROM sessions WHERE token = ?`, token)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, token)
	}
	return sess, err
}

// List returns all sessions sorted by UpdatedAt descending.
func (s *SQLiteStore) List() ([]*Session, error) {
	rows, err := s.db.Query(
		`SELECT token, stage_index, mode, status, message_count, created_at, updated_at
		 FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var list []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, sess)
	}
	return list, rows.Err()
}

// Update rewrites the stage cursor and status of a session.
func (s *SQLiteStore) Update(sess *Session) error {
	sess.UpdatedAt = time.Now()
	res, err := s.db.Exec(
		`UPDATE sessions SET stage_index = ?, mode = ?, status = ?, updated_at = ? WHERE token = ?`,
		sess.StageIndex, sess.Mode, string(sess.Status), formatTime(sess.UpdatedAt), sess.Token,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireRow(res, sess.Token)
}

// End marks a session as closed.
func (s *SQLiteStore) End(token string) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET status = ?, updated_at = ? WHERE token = ?`,
		string(SessionClosed), formatTime(time.Now()), token,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return requireRow(res, token)
}

// AppendMessage inserts a transcript entry and bumps the message count.
func (s *SQLiteStore) AppendMessage(token string, msg Message) error {
	images, err := json.Marshal(msg.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	if msg.Images == nil {
		images = []byte("[]")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE sessions SET message_count = message_count + 1, updated_at = ? WHERE token = ?`,
		formatTime(time.Now()), token,
	)
	if err != nil {
		return fmt.Errorf("bump message count: %w", err)
	}
	if err := requireRow(res, token); err != nil {
		return err
	}

	if _, err := tx.Exec(
		`INSERT INTO messages (token, stage, role, content, images, ts) VALUES (?, ?, ?, ?, ?, ?)`,
		token, msg.Stage, msg.Role, msg.Content, string(images), formatTime(msg.Ts),
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return tx.Commit()
}

// LoadMessages returns the transcript in insertion order.
func (s *SQLiteStore) LoadMessages(token string) ([]Message, error) {
	if _, err := s.Get(token); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT stage, role, content, images, ts FROM messages WHERE token = ? ORDER BY id`, token)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var (
			m      Message
			images string
			ts     string
		)
		if err := rows.Scan(&m.Stage, &m.Role, &m.Content, &images, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal([]byte(images), &m.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
		if m.Ts, err = parseTime(ts); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// SetActive records the active token in the settings table.
func (s *SQLiteStore) SetActive(token string) error {
	if err := validToken(token); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, activeKey, token)
	if err != nil {
		return fmt.Errorf("set active session: %w", err)
	}
	return nil
}

// Active returns the active token, or "" when none is recorded.
func (s *SQLiteStore) Active() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, activeKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read active session: %w", err)
	}
	return token, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (*Session, error) {
	var (
		sess             Session
		status           string
		created, updated string
	)
	if err := r.Scan(&sess.Token, &sess.StageIndex, &sess.Mode, &status, &sess.MessageCount, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.Status = SessionStatus(status)

	var err error
	if sess.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if sess.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &sess, nil
}

func requireRow(res sql.Result, token string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, token)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
