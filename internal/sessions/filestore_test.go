package sessions

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// storeFactories runs every store test against both drivers.
var storeFactories = []struct {
	name string
	open func(t *testing.T) Store
}{
	{"file", func(t *testing.T) Store {
		return NewFileStore(t.TempDir())
	}},
	{"sqlite", func(t *testing.T) Store {
		s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
		if err != nil {
			t.Fatalf("OpenSQLiteStore: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	}},
}

func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	for _, f := range storeFactories {
		t.Run(f.name, func(t *testing.T) {
			fn(t, f.open(t))
		})
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		s, err := store.Create("tok-1")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if s.Status != SessionActive {
			t.Errorf("Status = %q, want %q", s.Status, SessionActive)
		}

		got, err := store.Get("tok-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Token != "tok-1" {
			t.Errorf("Get Token = %q, want tok-1", got.Token)
		}
		if got.StageIndex != 0 {
			t.Errorf("StageIndex = %d, want 0", got.StageIndex)
		}
	})
}

func TestCreateDuplicate(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		if _, err := store.Create("dup"); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := store.Create("dup"); err == nil {
			t.Fatal("expected error creating duplicate session")
		}
	})
}

func TestGetNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		_, err := store.Get("nonexistent")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestUpdateStageCursor(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		s, err := store.Create("tok-up")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		s.StageIndex = 4
		s.Mode = "diagram"
		if err := store.Update(s); err != nil {
			t.Fatalf("Update: %v", err)
		}

		got, err := store.Get("tok-up")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.StageIndex != 4 || got.Mode != "diagram" {
			t.Errorf("got stage %d mode %q, want 4 diagram", got.StageIndex, got.Mode)
		}
	})
}

func TestUpdateUnknown(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		err := store.Update(&Session{Token: "ghost"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestAppendAndLoadMessages(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		if _, err := store.Create("tok-msg"); err != nil {
			t.Fatalf("Create: %v", err)
		}

		msgs := []Message{
			{Stage: 0, Role: RoleUser, Content: "online shop", Ts: time.Now()},
			{Stage: 0, Role: RoleAssistant, Content: "Which payment methods?", Ts: time.Now()},
			{Stage: 4, Role: RoleUser, Content: "DFD, ER Diagram", Ts: time.Now()},
			{Stage: 4, Role: RoleAssistant, Images: []string{"a.png", "b.png"}, Ts: time.Now()},
			{Stage: 4, Role: RoleError, Content: "bad token", Ts: time.Now()},
		}

		for _, m := range msgs {
			if err := store.AppendMessage("tok-msg", m); err != nil {
				t.Fatalf("AppendMessage: %v", err)
			}
		}

		loaded, err := store.LoadMessages("tok-msg")
		if err != nil {
			t.Fatalf("LoadMessages: %v", err)
		}

		if len(loaded) != len(msgs) {
			t.Fatalf("loaded %d messages, want %d", len(loaded), len(msgs))
		}

		for i, m := range loaded {
			if m.Role != msgs[i].Role {
				t.Errorf("msg[%d].Role = %q, want %q", i, m.Role, msgs[i].Role)
			}
			if m.Content != msgs[i].Content {
				t.Errorf("msg[%d].Content = %q, want %q", i, m.Content, msgs[i].Content)
			}
			if m.Stage != msgs[i].Stage {
				t.Errorf("msg[%d].Stage = %d, want %d", i, m.Stage, msgs[i].Stage)
			}
			if len(m.Images) != len(msgs[i].Images) {
				t.Errorf("msg[%d] has %d images, want %d", i, len(m.Images), len(msgs[i].Images))
			}
		}

		got, err := store.Get("tok-msg")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.MessageCount != 5 {
			t.Errorf("MessageCount = %d, want 5", got.MessageCount)
		}
	})
}

func TestAppendMessageUnknownSession(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		err := store.AppendMessage("ghost", Message{Role: RoleUser, Content: "x", Ts: time.Now()})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestLoadMessagesEmpty(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		if _, err := store.Create("tok-empty"); err != nil {
			t.Fatalf("Create: %v", err)
		}

		msgs, err := store.LoadMessages("tok-empty")
		if err != nil {
			t.Fatalf("LoadMessages: %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("expected 0 messages, got %d", len(msgs))
		}
	})
}

func TestEnd(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		if _, err := store.Create("tok-end"); err != nil {
			t.Fatalf("Create: %v", err)
		}

		if err := store.End("tok-end"); err != nil {
			t.Fatalf("End: %v", err)
		}

		got, err := store.Get("tok-end")
		if err != nil {
			t.Fatalf("Get after End: %v", err)
		}
		if got.Status != SessionClosed {
			t.Errorf("Status = %q, want %q", got.Status, SessionClosed)
		}
	})
}

func TestActive(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		tok, err := store.Active()
		if err != nil {
			t.Fatalf("Active: %v", err)
		}
		if tok != "" {
			t.Errorf("Active = %q, want empty", tok)
		}

		for _, want := range []string{"first", "second"} {
			if err := store.SetActive(want); err != nil {
				t.Fatalf("SetActive: %v", err)
			}
			got, err := store.Active()
			if err != nil {
				t.Fatalf("Active: %v", err)
			}
			if got != want {
				t.Errorf("Active = %q, want %q", got, want)
			}
		}
	})
}

func TestListOrdering(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		for _, tok := range []string{"s1", "s2", "s3"} {
			if _, err := store.Create(tok); err != nil {
				t.Fatalf("Create %s: %v", tok, err)
			}
			time.Sleep(2 * time.Millisecond)
		}

		// Touch s1 so it becomes the most recent.
		s1, err := store.Get("s1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if err := store.Update(s1); err != nil {
			t.Fatalf("Update: %v", err)
		}

		list, err := store.List()
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("List returned %d sessions, want 3", len(list))
		}
		if list[0].Token != "s1" {
			t.Errorf("list[0].Token = %q, want s1 (most recent)", list[0].Token)
		}
		if list[1].Token != "s3" {
			t.Errorf("list[1].Token = %q, want s3", list[1].Token)
		}
	})
}

func TestInvalidToken(t *testing.T) {
	store := NewFileStore(t.TempDir())
	for _, tok := range []string{"", "..", "a/b", `a\b`} {
		if _, err := store.Create(tok); err == nil {
			t.Errorf("Create(%q) succeeded, want error", tok)
		}
	}
}

func TestFileStoreSkipsCorruptedLines(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	if _, err := store.Create("tok"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.AppendMessage("tok", Message{Role: RoleUser, Content: "ok", Ts: time.Now()}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "tok", "messages.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not json\n")
	f.Close()

	msgs, err := store.LoadMessages("tok")
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("expected 1 message, got %d", len(msgs))
	}
}

func TestOpenDrivers(t *testing.T) {
	dir := t.TempDir()

	fs, err := Open("file", dir)
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := fs.(*FileStore); !ok {
		t.Errorf("Open(file) = %T, want *FileStore", fs)
	}

	sq, err := Open("sqlite", dir)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer sq.Close()
	if _, ok := sq.(*SQLiteStore); !ok {
		t.Errorf("Open(sqlite) = %T, want *SQLiteStore", sq)
	}

	if _, err := Open("redis", dir); err == nil {
		t.Error("expected error for unknown driver")
	}
}
