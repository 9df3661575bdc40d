package memory

import (
	"bytes"
	"context"
	"sync"

	"roomdrop-server/core"

	"github.com/sirupsen/logrus"
)

type fileStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewFileStore returns an in-memory file store. It is the default
// backend and the one the coordinator tests run against.
func NewFileStore() core.FileStore {
	return &fileStore{
		files: make(map[string][]byte),
	}
}

func (s *fileStore) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	handle := core.NewFileHandle(originalName)

	s.mu.Lock()
	s.files[handle] = append([]byte(nil), data...)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"handle":      handle,
		"data_length": len(data),
	}).Info("File stored")

	return handle, nil
}

func (s *fileStore) Retrieve(ctx context.Context, handle string) (*core.File, error) {
	s.mu.RLock()
	data, ok := s.files[handle]
	s.mu.RUnlock()

	if !ok {
		logrus.WithField("handle", handle).Warn("File with specified handle not found")
		return nil, core.ErrFileNotFound
	}

	file := core.File{
		Data: *bytes.NewBuffer(append([]byte(nil), data...)),
	}
	return &file, nil
}

func (s *fileStore) Delete(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[handle]; !ok {
		return core.ErrFileNotFound
	}
	delete(s.files, handle)

	logrus.WithField("handle", handle).Info("File deleted")
	return nil
}
