// Package upload stores car images on the local disk and serves their public URLs.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"carrental/internal/entities"
	"github.com/google/uuid"
)

const (
	// URLPrefix is where the router serves the upload root.
	URLPrefix = "/uploads/"
	carsDir   = "cars"
)

var (
	ErrInvalidType = errors.New("unsupported image type")
	ErrInvalidPath = errors.New("invalid upload path")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Storage struct {
	root    string
	maxSize int64
}

func NewStorage(root string, maxSize int64) *Storage {
	return &Storage{root: root, maxSize: maxSize}
}

func (s *Storage) Root() string {
	return s.root
}

// TooLargeError reports a file above the configured limit.
type TooLargeError struct {
	Max int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file exceeds %d bytes", e.Max)
}

// MaxMB is the limit in mebibytes, for messages shown to users.
func (e *TooLargeError) MaxMB() float64 {
	return float64(e.Max) / (1024 * 1024)
}

// SaveCarImage validates and writes f under the cars directory and returns its public URL.
func (s *Storage) SaveCarImage(f entities.Upload) (string, error) {
	ext, ok := allowedTypes[strings.ToLower(f.ContentType)]
	if !ok {
		return "", ErrInvalidType
	}
	if f.Size > s.maxSize {
		return "", &TooLargeError{Max: s.maxSize}
	}
	switch orig := strings.ToLower(filepath.Ext(f.Filename)); orig {
	case ".jpg", ".jpeg", ".png", ".webp":
		ext = orig
	}

	dir := filepath.Join(s.root, carsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating upload directory: %w", err)
	}

	name := "car-" + uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("error creating %s: %w", name, err)
	}

	// Size on the header can lie, so the copy is capped as well.
	n, err := io.Copy(dst, io.LimitReader(f.Body, s.maxSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxSize {
		err = &TooLargeError{Max: s.maxSize}
	}
	if err != nil {
		_ = os.Remove(filepath.Join(dir, name))
		return "", err
	}

	return URLPrefix + carsDir + "/" + name, nil
}

// Delete removes the file behind a public URL. Missing files are not an error;
// URLs that resolve outside the upload root are refused.
func (s *Storage) Delete(url string) error {
	if url == "" {
		return nil
	}
	if !strings.HasPrefix(url, URLPrefix) {
		return ErrInvalidPath
	}
	rel := path.Clean("/" + strings.TrimPrefix(url, URLPrefix))
	if rel == "/" || strings.Contains(strings.TrimPrefix(url, URLPrefix), "..") {
		return ErrInvalidPath
	}

	target := filepath.Join(s.root, filepath.FromSlash(rel))
	root, err := filepath.Abs(s.root)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return ErrInvalidPath
	}

	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error deleting %s: %w", url, err)
	}
	return nil
}
