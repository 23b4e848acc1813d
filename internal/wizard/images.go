package wizard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dohr-michael/stagewise/clients/api"
)

// SaveImages writes every image of set as a PNG under dir/token/<timestamp>/.
// labels name the files when they line up with the images. An image that
// cannot be decoded or written is skipped; the paths written so far are
// returned alongside the joined errors.
func SaveImages(dir, token string, labels []string, set api.ImageSetReply) ([]string, error) {
	if len(set.Images) == 0 {
		return nil, nil
	}

	target := filepath.Join(dir, token, time.Now().Format("20060102-150405.000"))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, 0, len(set.Images))
	var errs []error
	for i, img := range set.Images {
		data, err := img.Bytes()
		if err != nil {
			errs = append(errs, fmt.Errorf("image %d: %w", i+1, err))
			continue
		}

		name := "diagram"
		if len(labels) == len(set.Images) {
			if s := slug(labels[i]); s != "" {
				name = s
			}
		}
		path := filepath.Join(target, fmt.Sprintf("%02d-%s.png", i+1, name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("image %d: write %s: %w", i+1, path, err))
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

// slug turns "ER Diagram" into "er-diagram".
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
