// Package snapshot saves rendered mosaics to disk.
package snapshot

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/junsooki/FlagCam/internal/encoder"
)

// Writer encodes frames and writes each one to a new file in a directory.
type Writer struct {
	dir string
	enc encoder.Encoder
	now func() time.Time
}

// NewWriter returns a writer for dir. The directory is created on first save.
func NewWriter(dir string, enc encoder.Encoder) *Writer {
	return &Writer{dir: dir, enc: enc, now: time.Now}
}

// Save writes img and returns the path of the new file.
func (w *Writer) Save(img *image.RGBA) (string, error) {
	if img == nil {
		return "", fmt.Errorf("snapshot: no frame to save")
	}
	data, err := w.enc.Encode(img)
	if err != nil {
		return "", fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot: create dir: %w", err)
	}

	name := fmt.Sprintf("flagcam-%s-%s%s",
		w.now().Format("20060102-150405"), uuid.NewString()[:8], w.enc.Ext())
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("snapshot: write: %w", err)
	}
	return path, nil
}
