package stage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmeza/limaq/internal/models"
)

// Writer lands raw JSON payloads under baseDir/data/<partition>/<file>.
type Writer struct {
	baseDir string
}

// NewWriter returns a Writer rooted at baseDir (typically the working
// directory).
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Write serializes the payload with two-space indentation to the
// partitioned path for (loc, capturedAt), creating intermediate
// directories. The file is written to a temp name in the target directory
// and renamed into place so a crash mid-write never leaves a truncated
// file. Returns the final path.
func (w *Writer) Write(payload json.RawMessage, loc models.Location, capturedAt time.Time) (string, error) {
	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return "", fmt.Errorf("invalid payload for %s: %w", loc, err)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize payload for %s: %w", loc, err)
	}

	dir := filepath.Join(w.baseDir, "data", filepath.FromSlash(Partition(loc, capturedAt)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create partition dir: %w", err)
	}

	path := filepath.Join(dir, FileName(capturedAt))
	tmp, err := os.CreateTemp(dir, ".measurement-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename into place: %w", err)
	}
	return path, nil
}
