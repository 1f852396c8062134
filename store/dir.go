package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Extension is the suffix of every snapshot file.
const Extension = ".json"

// FileMode is the permission applied to snapshot files.
const FileMode os.FileMode = 0o644

// Entry is one file read back from the directory.
// Exactly one of Data and Err is meaningful.
type Entry struct {
	Name string
	Data []byte
	Err  error
}

// Dir is a snapshot directory. A Dir is safe for concurrent use; concurrent
// writers of the same (pid, name) pair race and the last rename wins.
type Dir struct {
	fs   afero.Fs
	path string
}

// Option configures Open.
type Option func(*Dir)

// WithFs sets the filesystem backing the directory. Defaults to the OS
// filesystem.
func WithFs(fs afero.Fs) Option {
	return func(d *Dir) {
		if fs != nil {
			d.fs = fs
		}
	}
}

// Open validates path and returns a Dir for it. The directory must already
// exist; Open never creates it.
func Open(path string, opts ...Option) (*Dir, error) {
	d := &Dir{fs: afero.NewOsFs(), path: path}
	for _, opt := range opts {
		opt(d)
	}

	if path == "" {
		return nil, ErrNotConfigured
	}

	info, err := d.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	return d, nil
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// FileName returns the snapshot file name for a process and checker name.
func FileName(pid int, name string) string {
	return strconv.Itoa(pid) + "-" + sanitize(name) + Extension
}

// Write atomically replaces the snapshot for (pid, name) with data.
func (d *Dir) Write(pid int, name string, data []byte) error {
	if name == "" {
		return ErrEmptyName
	}
	target := filepath.Join(d.path, FileName(pid, name))

	tmp, err := afero.TempFile(d.fs, d.path, "."+strconv.Itoa(pid)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := d.fs.Chmod(tmpName, FileMode); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("store: chmod temp: %w", err)
	}
	if err := d.fs.Rename(tmpName, target); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}

// List reads every snapshot file in the directory, sorted by file name.
// Only files ending in Extension are read; dot files and subdirectories are
// skipped. A file that cannot be read is returned with Err set; List itself
// fails only when the directory cannot be listed.
func (d *Dir) List() ([]Entry, error) {
	return d.ListContext(context.Background())
}

// ListContext is List, checking ctx before each file is read.
func (d *Dir) ListContext(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	infos, err := afero.ReadDir(d.fs, d.path)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != Extension {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		data, err := afero.ReadFile(d.fs, filepath.Join(d.path, name))
		entries = append(entries, Entry{Name: name, Data: data, Err: err})
	}
	return entries, nil
}

// sanitize maps name onto a safe file name component. Path separators and
// anything outside [A-Za-z0-9._-] become '_', and a leading dot is replaced
// so the result is never hidden.
func sanitize(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_':
		case c == '.' && i > 0:
		default:
			b[i] = '_'
		}
	}
	return string(b)
}
