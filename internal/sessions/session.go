// Package sessions persists wizard sessions: the stage cursor of each session
// token and the transcript of its turns.
package sessions

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when a session token is unknown to the store.
var ErrNotFound = errors.New("session not found")

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleError     = "error"
)

// Session holds the stage cursor of a wizard session.
type Session struct {
	Token        string        `json:"token" yaml:"token"`
	StageIndex   int           `json:"stage_index" yaml:"stage_index"`
	Mode         string        `json:"mode" yaml:"mode"`
	Status       SessionStatus `json:"status" yaml:"status"`
	CreatedAt    time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" yaml:"updated_at"`
	MessageCount int           `json:"message_count" yaml:"message_count"`
}

// Message is a single transcript entry, serializable to JSONL.
type Message struct {
	Stage   int       `json:"stage" yaml:"stage"`
	Role    string    `json:"role" yaml:"role"`
	Content string    `json:"content" yaml:"content"`
	Images  []string  `json:"images,omitempty" yaml:"images,omitempty"` // saved diagram files
	Ts      time.Time `json:"ts" yaml:"ts"`
}

// Store defines the persistence interface for sessions.
type Store interface {
	Create(token string) (*Session, error)
	Get(token string) (*Session, error)
	List() ([]*Session, error)
	Update(s *Session) error
	End(token string) error
	AppendMessage(token string, msg Message) error
	LoadMessages(token string) ([]Message, error)

	// SetActive records the token the CLI resumes by default.
	SetActive(token string) error
	// Active returns the active token, or "" when none is recorded.
	Active() (string, error)

	io.Closer
}

// Open returns the store for the given driver rooted at dir.
func Open(driver, dir string) (Store, error) {
	switch driver {
	case "", "file":
		return NewFileStore(dir), nil
	case "sqlite":
		return OpenSQLiteStore(filepath.Join(dir, "sessions.db"))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// validToken rejects tokens that could escape the store directory.
func validToken(token string) error {
	if token == "" {
		return errors.New("empty session token")
	}
	if strings.ContainsAny(token, `/\`) || token == "." || token == ".." {
		return fmt.Errorf("invalid session token %q", token)
	}
	return nil
}
