// Package photostore keeps directly-uploaded images on local disk,
// independent of the messaging platform's own file hosting.
//
// Blobs are named by UUID; references carry the "loc_" prefix so they
// are distinguishable from externally-hosted media references.
package photostore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// LocalPrefix marks references owned by this store.
	LocalPrefix = "loc_"

	// MaxPhotoSize caps a single upload.
	MaxPhotoSize = 5 * 1024 * 1024
)

var (
	ErrUnsupportedType = errors.New("unsupported photo content type")
	ErrTooLarge        = errors.New("photo exceeds size limit")
	ErrEmptyPhoto      = errors.New("photo payload is empty")
)

// allowedTypes maps accepted MIME types to on-disk extensions.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("photostore: upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the image to disk and returns its local reference.
func (s *Store) Save(data []byte, contentType string) (string, error) {
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if len(data) == 0 {
		return "", ErrEmptyPhoto
	}
	if len(data) > MaxPhotoSize {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	path := filepath.Join(s.dir, id+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return LocalPrefix + id, nil
}

// Path resolves a local reference to its on-disk path. The resolved
// path must stay inside the upload dir.
func (s *Store) Path(ref string) (string, bool) {
	if !IsLocal(ref) {
		return "", false
	}
	id := strings.TrimPrefix(ref, LocalPrefix)
	root, err := filepath.Abs(s.dir)
	if err != nil {
		return "", false
	}
	for _, ext := range allowedTypes {
		path, err := filepath.Abs(filepath.Join(s.dir, id+ext))
		if err != nil || !strings.HasPrefix(path, root+string(filepath.Separator)) {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Exists reports whether ref is a local reference with a blob on disk.
func (s *Store) Exists(ref string) bool {
	_, ok := s.Path(ref)
	return ok
}

// IsLocal reports whether ref belongs to this store rather than the
// messaging platform's file hosting.
func IsLocal(ref string) bool {
	return strings.HasPrefix(ref, LocalPrefix)
}
