package core

import (
	"bytes"
	"context"
	"time"
)

type (
	// File holds the bytes of one stored upload.
	File struct {
		Data bytes.Buffer
	}

	// FileRef describes one uploaded artifact. It is owned by exactly one
	// room and lives only as long as that room has members.
	FileRef struct {
		Handle       string    `json:"savedName"`
		OriginalName string    `json:"fileName"`
		MimeType     string    `json:"fileType"`
		RoomID       string    `json:"roomId"`
		IngestedAt   time.Time `json:"ingestedAt"`
	}

	// FileStore persists upload blobs. Store must return a handle that is
	// unique for the lifetime of the process even for concurrent calls
	// with identical names; Delete of an absent handle reports
	// ErrFileNotFound and nothing else.
	FileStore interface {
		Store(ctx context.Context, data []byte, originalName string) (string, error)
		Retrieve(ctx context.Context, handle string) (*File, error)
		Delete(ctx context.Context, handle string) error
	}

	// RoomInfo is the read-only view of one active room exposed over the
	// rooms API.
	RoomInfo struct {
		ID    string `json:"id"`
		Users int    `json:"users"`
		Files int    `json:"files"`
	}
)
