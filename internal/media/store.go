// Package media stores uploaded images and videos on local disk.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/curator/internal/apperr"
)

const (
	tmpPrefix = ".curator-tmp-"
	chunkSize = 32 << 10
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrTooLarge    = errors.New("file too large")
)

var allowedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".mp4": true, ".webm": true, ".pdf": true,
}

// File describes a stored media file.
type File struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"url"`
}

// Store keeps media files in a flat directory.
type Store struct {
	root     string
	maxBytes int64
}

// NewStore creates the directory if needed. maxBytes <= 0 disables the size
// limit.
func NewStore(root string, maxBytes int64) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("media: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("media: mkdir: %w", err)
	}
	return &Store{root: abs, maxBytes: maxBytes}, nil
}

// Root returns the absolute media directory.
func (s *Store) Root() string { return s.root }

// safePath validates that name is a plain file name with an allowed
// extension and returns its absolute path.
func (s *Store) safePath(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.ContainsAny(cleaned, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(cleaned))] {
		return "", fmt.Errorf("%w: unsupported extension %q", ErrInvalidName, filepath.Ext(cleaned))
	}
	abs := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return abs, nil
}

// Path returns the absolute path of an existing file.
func (s *Store) Path(name string) (string, error) {
	abs, err := s.safePath(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", fmt.Errorf("media: stat %s: %w", name, err)
	}
	return abs, nil
}

// Save streams r into name: tmp file → fsync → link into place. The copy checks ctx
// between chunks; a cancelled or failed upload leaves nothing behind.
// An existing file with the same name is reported as apperr.ErrAlreadyExists.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (File, error) {
	abs, err := s.safePath(name)
	if err != nil {
		return File{}, err
	}
	if _, err := os.Stat(abs); err == nil {
		return File{}, fmt.Errorf("media: %s: %w", name, apperr.ErrAlreadyExists)
	}

	tmp, err := os.CreateTemp(s.root, tmpPrefix+"*")
	if err != nil {
		return File{}, fmt.Errorf("media: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return File{}, fmt.Errorf("media: save %s: %w", name, err)
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			written += int64(n)
			if s.maxBytes > 0 && written > s.maxBytes {
				return File{}, fmt.Errorf("media: save %s: %w", name, ErrTooLarge)
			}
			if _, err := tmp.Write(buf[:n]); err != nil {
				return File{}, fmt.Errorf("media: write temp: %w", err)
			}
			h.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return File{}, fmt.Errorf("media: read upload: %w", readErr)
		}
	}

	if err := tmp.Sync(); err != nil {
		return File{}, fmt.Errorf("media: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return File{}, fmt.Errorf("media: close temp: %w", err)
	}
	// Link rather than rename: a concurrent upload of the same name that
	// committed first must not be replaced.
	if err := os.Link(tmpName, abs); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return File{}, fmt.Errorf("media: %s: %w", name, apperr.ErrAlreadyExists)
		}
		return File{}, fmt.Errorf("media: commit: %w", err)
	}
	success = true
	_ = os.Remove(tmpName)

	info, err := os.Stat(abs)
	if err != nil {
		return File{}, fmt.Errorf("media: stat %s: %w", name, err)
	}
	return fileFrom(info, hex.EncodeToString(h.Sum(nil))), nil
}

// List returns every stored file sorted by name.
func (s *Store) List() ([]File, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("media: list: %w", err)
	}
	out := make([]File, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("media: list: %w", err)
		}
		sum, err := fileChecksum(filepath.Join(s.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("media: list: %w", err)
		}
		out = append(out, fileFrom(info, sum))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes name.
func (s *Store) Delete(name string) error {
	abs, err := s.safePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("media: delete %s: %w", name, err)
	}
	return nil
}

func fileFrom(info os.FileInfo, sum string) File {
	return File{
		Name:      info.Name(),
		Size:      info.Size(),
		Checksum:  sum,
		UpdatedAt: info.ModTime(),
		URL:       "/media/" + info.Name(),
	}
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
