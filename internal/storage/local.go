package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage persists uploaded files.
type FileStorage interface {
	Save(ctx context.Context, fileID, filename string, reader io.Reader) (string, error)
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

// LocalStorage stores files on the local filesystem under basePath/<fileID>/<filename>.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

// BasePath returns the directory files are written under.
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// Save writes reader to basePath/fileID/filename and returns the path relative to basePath.
func (s *LocalStorage) Save(_ context.Context, fileID, filename string, reader io.Reader) (string, error) {
	name := SanitizeFilename(filename)
	dir := filepath.Join(s.basePath, fileID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	full := filepath.Join(dir, name)
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	_, err = io.Copy(f, reader)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close file: %w", cerr)
	} else if err != nil {
		err = fmt.Errorf("write file: %w", err)
	}
	if err != nil {
		_ = os.Remove(full)
		_ = os.Remove(dir)
		return "", err
	}

	return filepath.ToSlash(filepath.Join(fileID, name)), nil
}

func (s *LocalStorage) Open(_ context.Context, storagePath string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(storagePath))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, storagePath string) error {
	full := s.resolve(storagePath)
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	// Try to remove parent dir (fileID dir) if empty
	_ = os.Remove(filepath.Dir(full))
	return nil
}

func (s *LocalStorage) resolve(storagePath string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(storagePath))
}

// SanitizeFilename strips directories and characters that are awkward in URLs.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r == '/' || r == '?' || r == '#' || r == '%' || r < 0x20:
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
