package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ScopedFile is a temporary on-disk copy of uploaded or decoded grievance
// bytes, owned by a single request. The path is unique per request so
// concurrent requests never collide.
type ScopedFile struct {
	path string
}

// NewScopedFile writes data to a fresh uniquely named file under the system
// temp directory, carrying the declared extension so extractors can branch on
// it.
func NewScopedFile(data []byte, ext string) (*ScopedFile, error) {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	// declared extensions come from the client; anything beyond letters and
	// digits is dropped rather than spliced into a path
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			ext = ""
			break
		}
	}
	name := uuid.NewString()
	if ext != "" {
		name = fmt.Sprintf("%s.%s", name, ext)
	}
	path := filepath.Join(os.TempDir(), "redtape-"+name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	return &ScopedFile{path: path}, nil
}

// Path returns the on-disk location of the file.
func (f *ScopedFile) Path() string { return f.path }

// Remove deletes the file. Safe to defer; removal errors are ignored because
// the file lives under the OS temp directory.
func (f *ScopedFile) Remove() {
	if f == nil || f.path == "" {
		return
	}
	_ = os.Remove(f.path)
}
