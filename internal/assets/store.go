package assets

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// BackupSuffix is appended to a file's name when it is moved aside.
const BackupSuffix = ".bak"

// ErrNoDirectory is returned by OpenExisting when the directory is missing.
var ErrNoDirectory = errors.New("directory not found")

// Store is a flat directory of PNG files keyed by filename.
// It assumes a single writer.
type Store struct {
	dir string
}

// Open returns a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// OpenExisting returns a Store rooted at dir, which must already exist.
func OpenExisting(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoDirectory, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoDirectory, dir)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the full path for filename.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// PutResult reports what Put wrote.
type PutResult struct {
	Path string
	// BackupPath is empty when no previous file was moved aside.
	BackupPath string
}

// Put encodes img as an RGBA PNG and stores it under filename. With backup
// set, an existing file is renamed to filename+".bak" (replacing any older
// backup) before the new content takes its place. The new content is fully written
// to a temporary file first, so an encode or write failure leaves the
// existing file untouched.
func (s *Store) Put(filename string, img image.Image, backup bool) (PutResult, error) {
	return s.put(filename, img, ModeRGBA, backup)
}

func (s *Store) put(filename string, img image.Image, mode Mode, backup bool) (PutResult, error) {
	dst := s.Path(filename)
	res := PutResult{Path: dst}

	tmp, err := s.stage(filename, img, mode)
	if err != nil {
		return res, err
	}

	if backup {
		if _, err := os.Lstat(dst); err == nil {
			bak := dst + BackupSuffix
			if err := os.Rename(dst, bak); err != nil {
				_ = os.Remove(tmp)
				return res, fmt.Errorf("back up %s: %w", filename, err)
			}
			res.BackupPath = bak
		}
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return res, fmt.Errorf("commit %s: %w", filename, err)
	}
	return res, nil
}

// Replace overwrites filename with img encoded in mode, without taking a
// backup.
func (s *Store) Replace(filename string, img image.Image, mode Mode) error {
	_, err := s.put(filename, img, mode, false)
	return err
}

// Read returns the raw bytes stored under filename.
func (s *Store) Read(filename string) ([]byte, error) {
	return os.ReadFile(s.Path(filename))
}

// ListPNG returns the names of non-directory entries ending in ".png" (any
// case), sorted by name.
func (s *Store) ListPNG() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// stage writes img to a hidden temporary file next to filename and returns
// its path.
func (s *Store) stage(filename string, img image.Image, mode Mode) (string, error) {
	tmp := s.Path("." + filename + "." + uuid.NewString() + ".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", filename, err)
	}

	if err := EncodePNG(f, img, mode); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("sync %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close %s: %w", filename, err)
	}
	return tmp, nil
}
