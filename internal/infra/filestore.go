package infra

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// storedPrefix is the logical root of every persisted path.
const storedPrefix = "uploads"

// ErrInvalidStoredPath is returned for stored paths outside the upload root.
var ErrInvalidStoredPath = errors.New("invalid stored path")

// FileStore keeps uploaded documents on local disk. Persisted paths look like
// uploads/invoices/<uuid>.jpg and resolve under Root.
type FileStore struct {
	Root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "invoices"), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{Root: root}, nil
}

// SaveInvoice writes r under a fresh random name that keeps originalName's
// extension and returns the relative stored path.
func (fs *FileStore) SaveInvoice(originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	rel := path.Join(storedPrefix, "invoices", name)

	abs, err := fs.Resolve(rel)
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(abs)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(abs)
		return "", err
	}
	return rel, nil
}

// ThumbnailPath returns the stored path of the thumbnail for a stored invoice.
func (fs *FileStore) ThumbnailPath(stored string) string {
	base := strings.TrimSuffix(path.Base(stored), path.Ext(stored))
	return path.Join(storedPrefix, "invoices", "thumbnails", base+".jpg")
}

// Resolve maps a stored path to an absolute location under Root.
func (fs *FileStore) Resolve(stored string) (string, error) {
	clean := path.Clean(stored)
	rest, ok := strings.CutPrefix(clean, storedPrefix+"/")
	if !ok || strings.HasPrefix(rest, "../") || rest == ".." {
		return "", ErrInvalidStoredPath
	}
	return filepath.Join(fs.Root, filepath.FromSlash(rest)), nil
}

// Read loads the bytes of a stored file.
func (fs *FileStore) Read(stored string) ([]byte, error) {
	abs, err := fs.Resolve(stored)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// Remove deletes a stored file; a missing file is not an error.
func (fs *FileStore) Remove(stored string) error {
	abs, err := fs.Resolve(stored)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
