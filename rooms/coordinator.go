package rooms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roomdrop-server/core"

	"github.com/sirupsen/logrus"
)

// EventFileShared is emitted to every member of a room when an upload
// into that room has been accepted.
const EventFileShared = "file-shared"

// Dispatcher delivers one event to every current member of a room.
// Delivery to a member that disconnected between the membership snapshot
// and the send is a no-op.
type Dispatcher interface {
	Broadcast(roomID, event string, payload map[string]any)
}

// Coordinator composes the registry, the file store and the dispatcher
// into the join, upload and disconnect workflows. It is the only
// component that decides when stored bytes are deleted.
type Coordinator struct {
	registry  *Registry
	store     core.FileStore
	dispatch  Dispatcher
	maxUpload int64

	// orderMu guards order; the per-room mutexes serialize
	// record-and-broadcast so members observe uploads in acceptance
	// order. Entries are kept for every room id ever seen: deleting
	// one when a room empties would let an upload into an immediately
	// recreated room grab a fresh mutex while the old one is still
	// held by an in-flight upload.
	orderMu sync.Mutex
	order   map[string]*sync.Mutex
}

func NewCoordinator(registry *Registry, store core.FileStore, dispatch Dispatcher, maxUpload int64) *Coordinator {
	return &Coordinator{
		registry:  registry,
		store:     store,
		dispatch:  dispatch,
		maxUpload: maxUpload,
		order:     make(map[string]*sync.Mutex),
	}
}

// Join adds sessionID to roomID, creating the room on first join.
func (c *Coordinator) Join(roomID, sessionID string) error {
	if err := c.registry.Join(roomID, sessionID); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"room_id":    roomID,
		"session_id": sessionID,
	}).Info("Session joined room")
	return nil
}

// Upload ingests one file into roomID on behalf of sessionID and
// notifies every current member, the uploader included. The size check
// runs before any storage write; the blob is stored outside the registry
// lock, and a room that vanished between the membership check and the
// record step gets its just-stored blob deleted again.
func (c *Coordinator) Upload(ctx context.Context, roomID, sessionID string, data []byte, originalName, mimeType string) (core.FileRef, error) {
	if roomID == "" {
		return core.FileRef{}, core.ErrEmptyRoomID
	}
	if c.maxUpload > 0 && int64(len(data)) > c.maxUpload {
		return core.FileRef{}, core.ErrPayloadTooLarge
	}
	if !c.registry.IsMember(roomID, sessionID) {
		return core.FileRef{}, core.ErrNotAMember
	}

	handle, err := c.store.Store(ctx, data, originalName)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"room_id":   roomID,
			"file_name": originalName,
		}).WithError(err).Error("Failed to store upload")
		return core.FileRef{}, fmt.Errorf("store upload: %w", err)
	}

	ref := core.FileRef{
		Handle:       handle,
		OriginalName: originalName,
		MimeType:     mimeType,
		RoomID:       roomID,
		IngestedAt:   time.Now(),
	}

	mu := c.roomOrder(roomID)
	mu.Lock()
	if err := c.registry.RecordUpload(roomID, ref); err != nil {
		mu.Unlock()
		// The room emptied while the blob was being written; undo
		// the write so nothing is left orphaned.
		if derr := c.store.Delete(ctx, handle); derr != nil {
			logrus.WithField("handle", handle).WithError(derr).Warn("Failed to delete blob for vanished room")
		}
		return core.FileRef{}, err
	}
	c.dispatch.Broadcast(roomID, EventFileShared, map[string]any{
		"roomId":    roomID,
		"fileName":  ref.OriginalName,
		"savedName": ref.Handle,
		"fileType":  ref.MimeType,
		"url":       "/uploads/" + ref.Handle,
	})
	mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"room_id":     roomID,
		"session_id":  sessionID,
		"handle":      handle,
		"data_length": len(data),
	}).Info("File shared to room")

	return ref, nil
}

// Disconnect reconciles every room sessionID belonged to. Each room is
// handled independently: the last member leaving a room purges that
// room's blobs, and a failed delete is logged without blocking the
// other rooms. Disconnecting an unknown session is a no-op.
func (c *Coordinator) Disconnect(ctx context.Context, sessionID string) {
	for _, roomID := range c.registry.SessionRooms(sessionID) {
		empty, purged := c.registry.Leave(roomID, sessionID)
		if !empty {
			continue
		}

		logrus.WithFields(logrus.Fields{
			"room_id":    roomID,
			"file_count": len(purged),
		}).Info("Room is now empty, purging files")

		for _, ref := range purged {
			if err := c.store.Delete(ctx, ref.Handle); err != nil {
				logrus.WithField("handle", ref.Handle).WithError(err).Warn("Failed to purge file")
			}
		}
	}

	c.registry.DropSession(sessionID)
}

// Rooms exposes the registry's active-room snapshot.
func (c *Coordinator) Rooms() []core.RoomInfo {
	return c.registry.Rooms()
}

// IsMember reports whether sessionID currently belongs to roomID.
func (c *Coordinator) IsMember(roomID, sessionID string) bool {
	return c.registry.IsMember(roomID, sessionID)
}

func (c *Coordinator) roomOrder(roomID string) *sync.Mutex {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()

	mu, ok := c.order[roomID]
	if !ok {
		mu = &sync.Mutex{}
		c.order[roomID] = mu
	}
	return mu
}
