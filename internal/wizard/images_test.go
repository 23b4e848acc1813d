package wizard

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dohr-michael/stagewise/clients/api"
)

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"ER Diagram": "er-diagram",
		"C4 Context": "c4-context",
		"  DFD  ":    "dfd",
		"Use Case!!": "use-case",
		"***":        "",
	}
	for in, want := range tests {
		if got := slug(in); got != want {
			t.Errorf("slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSaveImages(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("png-bytes")
	set := api.ImageSetReply{Images: []api.Image{
		{Base64: base64.StdEncoding.EncodeToString(payload), MIME: "image/png"},
		{Base64: base64.StdEncoding.EncodeToString(payload), MIME: "image/png"},
	}}

	// Label count mismatch falls back to generic names.
	paths, err := SaveImages(dir, "tok", []string{"only one"}, set)
	if err != nil {
		t.Fatalf("SaveImages: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	if filepath.Base(paths[0]) != "01-diagram.png" {
		t.Errorf("name = %q, want 01-diagram.png", filepath.Base(paths[0]))
	}
	data, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("content = %q, want %q", data, payload)
	}
}

func TestSaveImagesInvalidPayload(t *testing.T) {
	good := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	set := api.ImageSetReply{Images: []api.Image{
		{Base64: "iVBORw0==", MIME: "image/png"},
		{Base64: good, MIME: "image/png"},
	}}

	paths, err := SaveImages(t.TempDir(), "tok", []string{"DFD", "ER Diagram"}, set)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "image 1") {
		t.Errorf("error = %v, want it to name image 1", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "02-er-diagram.png" {
		t.Fatalf("paths = %v, want only 02-er-diagram.png", paths)
	}
	if _, err := os.Stat(paths[0]); err != nil {
		t.Errorf("stat: %v", err)
	}
}

func TestSaveImagesEmpty(t *testing.T) {
	paths, err := SaveImages(t.TempDir(), "tok", nil, api.ImageSetReply{})
	if err != nil || paths != nil {
		t.Errorf("SaveImages(empty) = %v, %v", paths, err)
	}
}
