package core

import "errors"

var (
	// ErrEmptyRoomID rejects operations naming no room.
	ErrEmptyRoomID = errors.New("room id is required")

	// ErrEmptySessionID rejects operations naming no session.
	ErrEmptySessionID = errors.New("session id is required")

	// ErrRoomNotFound reports an operation against a room with no members.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNotAMember reports an upload from a session that has not joined
	// the target room.
	ErrNotAMember = errors.New("session is not a member of room")

	// ErrPayloadTooLarge reports an upload above the configured maximum,
	// rejected before any storage write.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum upload size")

	// ErrFileNotFound reports a handle with no stored bytes behind it.
	ErrFileNotFound = errors.New("file not found")
)
