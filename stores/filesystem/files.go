package filesystem

import (
	"bytes"
	"context"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"

	"roomdrop-server/core"

	"github.com/sirupsen/logrus"
)

type fileStore struct {
	basePath string
}

// NewFileStore returns a file store backed by one file per handle under
// basePath.
func NewFileStore(basePath string) core.FileStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		stdlog.Fatalf("failed to create storage directory: %v", err)
	}
	return &fileStore{basePath: basePath}
}

// resolve maps a handle to a path inside basePath. Handles arrive from
// URLs, so anything that would escape the storage root is rejected
// before touching the filesystem.
func (s *fileStore) resolve(handle string) (string, error) {
	if handle == "" || strings.ContainsAny(handle, "/\\") || strings.Contains(handle, "..") {
		return "", core.ErrFileNotFound
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(filepath.Join(s.basePath, handle))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", core.ErrFileNotFound
	}

	return absPath, nil
}

func (s *fileStore) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	handle := core.NewFileHandle(originalName)
	filePath, err := s.resolve(handle)
	if err != nil {
		return "", fmt.Errorf("resolve handle %q: %w", handle, err)
	}

	log := logrus.WithFields(logrus.Fields{
		"handle":    handle,
		"file_path": filePath,
	})

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write file")
		return "", err
	}

	log.Info("File stored")
	return handle, nil
}

func (s *fileStore) Retrieve(ctx context.Context, handle string) (*core.File, error) {
	filePath, err := s.resolve(handle)
	if err != nil {
		return nil, err
	}
	log := logrus.WithField("handle", handle)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("File with specified handle not found")
			return nil, core.ErrFileNotFound
		}
		log.WithError(err).Error("Failed to read file")
		return nil, err
	}

	file := core.File{
		Data: *bytes.NewBuffer(data),
	}
	return &file, nil
}

func (s *fileStore) Delete(ctx context.Context, handle string) error {
	filePath, err := s.resolve(handle)
	if err != nil {
		return err
	}
	log := logrus.WithField("handle", handle)

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return core.ErrFileNotFound
		}
		log.WithError(err).Error("Failed to delete file")
		return err
	}

	log.Info("File deleted")
	return nil
}
