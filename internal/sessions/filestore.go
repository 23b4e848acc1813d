package sessions

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileStore persists sessions as directories with meta.json + messages.jsonl.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (fs *FileStore) sessionDir(token string) string {
	return filepath.Join(fs.baseDir, token)
}

func (fs *FileStore) metaPath(token string) string {
	return filepath.Join(fs.sessionDir(token), "meta.json")
}

func (fs *FileStore) messagesPath(token string) string {
	return filepath.Join(fs.sessionDir(token), "messages.jsonl")
}

func (fs *FileStore) activePath() string {
	return filepath.Join(fs.baseDir, "active")
}

// Create initialises a new session directory with meta.json.
func (fs *FileStore) Create(token string) (*Session, error) {
	if err := validToken(token); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := os.Stat(fs.metaPath(token)); err == nil {
		return nil, fmt.Errorf("session %s already exists", token)
	}

	now := time.Now()
	s := &Session{
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    SessionActive,
	}

	if err := os.MkdirAll(fs.sessionDir(token), 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	if err := fs.writeMeta(s); err != nil {
		return nil, err
	}

	return s, nil
}

// Get reads session metadata by token.
func (fs *FileStore) Get(token string) (*Session, error) {
	if err := validToken(token); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.readMeta(token)
}

// List returns all sessions sorted by UpdatedAt descending.
func (fs *FileStore) List() ([]*Session, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions dir: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		s, err := fs.readMeta(entry.Name())
		if err != nil {
			continue // skip corrupted sessions
		}
		sessions = append(sessions, s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

// Update atomically rewrites a session's meta.json.
func (fs *FileStore) Update(s *Session) error {
	if err := validToken(s.Token); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.readMeta(s.Token); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	return fs.writeMeta(s)
}

// End marks a session as closed.
func (fs *FileStore) End(token string) error {
	if err := validToken(token); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	s, err := fs.readMeta(token)
	if err != nil {
		return err
	}

	s.Status = SessionClosed
	s.UpdatedAt = time.Now()
	return fs.writeMeta(s)
}

// AppendMessage appends a message to the session's JSONL file and updates meta.
func (fs *FileStore) AppendMessage(token string, msg Message) error {
	if err := validToken(token); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	s, err := fs.readMeta(token)
	if err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	f, err := os.OpenFile(fs.messagesPath(token), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open messages file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	s.MessageCount++
	s.UpdatedAt = time.Now()
	return fs.writeMeta(s)
}

// LoadMessages reads all messages from a session's JSONL file.
func (fs *FileStore) LoadMessages(token string) ([]Message, error) {
	if err := validToken(token); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if _, err := fs.readMeta(token); err != nil {
		return nil, err
	}

	f, err := os.Open(fs.messagesPath(token))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open messages file: %w", err)
	}
	defer f.Close()

	var messages []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			continue // skip corrupted lines
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}

	return messages, nil
}

// SetActive writes the active token file.
func (fs *FileStore) SetActive(token string) error {
	if err := validToken(token); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(fs.baseDir, 0o755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}
	return writeFileAtomic(fs.activePath(), []byte(token+"\n"))
}

// Active reads the active token file.
func (fs *FileStore) Active() (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.activePath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read active session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Close is a no-op; FileStore holds no open handles.
func (fs *FileStore) Close() error { return nil }

// writeMeta atomically writes meta.json using a temp file + rename.
func (fs *FileStore) writeMeta(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := writeFileAtomic(fs.metaPath(s.Token), data); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

// readMeta reads a session's meta.json.
func (fs *FileStore) readMeta(token string) (*Session, error) {
	data, err := os.ReadFile(fs.metaPath(token))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, token)
		}
		return nil, fmt.Errorf("read meta: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}

	return &s, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
