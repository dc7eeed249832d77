package document

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// StoredFile describes a file written by a Storage.
type StoredFile struct {
	Path   string
	Size   int64
	SHA256 string
}

// Storage persists uploaded file contents.
type Storage interface {
	Save(ownerID, id, ext string, r io.Reader, maxSize int64) (*StoredFile, error)
	Open(path string) (io.ReadSeekCloser, error)
	Remove(path string) error
}

// LocalStorage keeps files under Root/<owner>/<id><ext>.
type LocalStorage struct {
	Root string
}

var _ Storage = (*LocalStorage)(nil)

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{Root: root}
}

// Save streams r to disk while hashing it. Files larger than maxSize are
// removed and ErrFileTooLarge is returned.
func (s *LocalStorage) Save(ownerID, id, ext string, r io.Reader, maxSize int64) (*StoredFile, error) {
	rel := filepath.Join(filepath.Base(ownerID), filepath.Base(id)+ext)
	full := filepath.Join(s.Root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), io.LimitReader(r, maxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	switch {
	case err != nil:
		os.Remove(full)
		return nil, fmt.Errorf("failed to write file: %w", err)
	case n > maxSize:
		os.Remove(full)
		return nil, ErrFileTooLarge
	case n == 0:
		os.Remove(full)
		return nil, ErrEmptyFile
	}

	return &StoredFile{Path: filepath.ToSlash(rel), Size: n, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

func (s *LocalStorage) Open(path string) (io.ReadSeekCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrDocumentNotFound
	}
	return f, err
}

// Remove deletes a stored file. A missing file is not an error.
func (s *LocalStorage) Remove(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage path %q", path)
	}
	return filepath.Join(s.Root, clean), nil
}
