// Package download hands exported payloads to the user.
package download

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Downloader saves a named payload and returns where it went.
type Downloader interface {
	Save(name string, data []byte) (string, error)
}

// Dir writes downloads into a directory.
type Dir struct {
	Path string
}

// Save writes data to Path/name, replacing any existing file. The file is
// written to a temporary name first so a failed write never leaves a
// truncated export behind.
func (d Dir) Save(name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid download name %q", name)
	}
	dir := d.Path
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing download: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("setting download permissions: %w", err)
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("saving download: %w", err)
	}
	return dest, nil
}

// File is a download captured by a Recorder.
type File struct {
	Name string
	Data []byte
}

// Recorder keeps downloads in memory.
type Recorder struct {
	mu    sync.Mutex
	files []File
}

func (r *Recorder) Save(name string, data []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, File{Name: name, Data: append([]byte(nil), data...)})
	return name, nil
}

// Files returns the recorded downloads in order.
func (r *Recorder) Files() []File {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]File, len(r.files))
	copy(out, r.files)
	return out
}
