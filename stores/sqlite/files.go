package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	stdlog "log"
	"time"

	"roomdrop-server/core"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

type fileStore struct {
	db *sql.DB
}

// NewFileStore returns a file store keeping blobs in a sqlite database.
func NewFileStore(dataSourceName string) core.FileStore {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		stdlog.Fatal(err)
	}

	sts := `CREATE TABLE IF NOT EXISTS files (
		handle TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(sts); err != nil {
		stdlog.Fatal(err)
	}

	return &fileStore{db}
}

func (s *fileStore) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	handle := core.NewFileHandle(originalName)
	log := logrus.WithFields(logrus.Fields{
		"handle":      handle,
		"data_length": len(data),
	})

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO files (handle, name, data, created_at) VALUES (?, ?, ?, ?)",
		handle, originalName, data, time.Now().UnixMilli())
	if err != nil {
		log.WithError(err).Error("Failed to store file")
		return "", err
	}

	log.Info("File stored")
	return handle, nil
}

func (s *fileStore) Retrieve(ctx context.Context, handle string) (*core.File, error) {
	log := logrus.WithField("handle", handle)

	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM files WHERE handle = ?", handle).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Warn("File with specified handle not found")
			return nil, core.ErrFileNotFound
		}
		log.WithError(err).Error("Failed to retrieve file")
		return nil, err
	}

	file := core.File{
		Data: *bytes.NewBuffer(data),
	}
	return &file, nil
}

func (s *fileStore) Delete(ctx context.Context, handle string) error {
	log := logrus.WithField("handle", handle)

	result, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE handle = ?", handle)
	if err != nil {
		log.WithError(err).Error("Failed to delete file")
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrFileNotFound
	}

	log.Info("File deleted")
	return nil
}
