package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/projecthub/backend/internal/config"
	"github.com/projecthub/backend/pkg/response"
)

// FileStore keeps attachment bytes on local disk under unique stored names.
type FileStore struct {
	dir      string
	maxBytes int64
}

func NewFileStore(cfg *config.UploadsConfig) (*FileStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &FileStore{
		dir:      cfg.Dir,
		maxBytes: cfg.MaxSizeMB * 1024 * 1024,
	}, nil
}

// Save copies the uploaded file to disk under a uuid-prefixed name and
// returns that stored name.
func (fs *FileStore) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > fs.maxBytes {
		return "", response.NewInvalidArgument(fmt.Sprintf("file exceeds the %d MB limit", fs.maxBytes/(1024*1024)))
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	storedName := uuid.NewString() + filepath.Ext(fh.Filename)
	dst, err := os.Create(filepath.Join(fs.dir, storedName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return storedName, nil
}

// Path returns the on-disk location of a stored file.
func (fs *FileStore) Path(storedName string) string {
	return filepath.Join(fs.dir, filepath.Base(storedName))
}

// Remove unlinks a stored file. A missing file is not an error.
func (fs *FileStore) Remove(storedName string) error {
	err := os.Remove(fs.Path(storedName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
