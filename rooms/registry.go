package rooms

import (
	"sort"
	"sync"

	"roomdrop-server/core"
)

type roomState struct {
	members map[string]struct{}
	files   []core.FileRef
}

// Registry is the in-memory map of active rooms and their members, plus
// the session tracker mapping each session to the rooms it has joined.
// Both sides live under one mutex so membership is always mutual: a
// session appears in a room's member set exactly when the room appears
// in that session's room set. A room record exists exactly while it has
// at least one member; the last Leave removes the record and hands its
// file list back to the caller for purging in the same critical section.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*roomState
	sessions map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]*roomState),
		sessions: make(map[string]map[string]struct{}),
	}
}

// Join adds sessionID to roomID, creating the room if absent. Joining a
// room twice is a no-op.
func (r *Registry) Join(roomID, sessionID string) error {
	if roomID == "" {
		return core.ErrEmptyRoomID
	}
	if sessionID == "" {
		return core.ErrEmptySessionID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = &roomState{members: make(map[string]struct{})}
		r.rooms[roomID] = room
	}
	room.members[sessionID] = struct{}{}

	known, ok := r.sessions[sessionID]
	if !ok {
		known = make(map[string]struct{})
		r.sessions[sessionID] = known
	}
	known[roomID] = struct{}{}

	return nil
}

// IsMember reports whether sessionID currently belongs to roomID.
func (r *Registry) IsMember(roomID, sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = room.members[sessionID]
	return ok
}

// Members returns a snapshot of roomID's member session ids.
func (r *Registry) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	members := make([]string, 0, len(room.members))
	for id := range room.members {
		members = append(members, id)
	}
	return members
}

// RecordUpload appends ref to roomID's file list. A room with no members
// has no record, so a late upload into a vacated room reports
// ErrRoomNotFound instead of resurrecting it.
func (r *Registry) RecordUpload(roomID string, ref core.FileRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return core.ErrRoomNotFound
	}
	room.files = append(room.files, ref)
	return nil
}

// Leave removes sessionID from roomID. When the departing session was
// the last member the room record is removed in the same step and its
// accumulated files are returned for purging; otherwise the returned
// list is empty. Leaving a room the session is not in is a no-op.
func (r *Registry) Leave(roomID, sessionID string) (roomNowEmpty bool, purged []core.FileRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if known, ok := r.sessions[sessionID]; ok {
		delete(known, roomID)
		if len(known) == 0 {
			delete(r.sessions, sessionID)
		}
	}

	room, ok := r.rooms[roomID]
	if !ok {
		return false, nil
	}
	if _, ok := room.members[sessionID]; !ok {
		return false, nil
	}

	delete(room.members, sessionID)
	if len(room.members) > 0 {
		return false, nil
	}

	delete(r.rooms, roomID)
	return true, room.files
}

// SessionRooms returns a snapshot of the rooms sessionID has joined.
func (r *Registry) SessionRooms(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	known, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(known))
	for id := range known {
		ids = append(ids, id)
	}
	return ids
}

// DropSession forgets sessionID's tracker entry. Membership must already
// have been reconciled through Leave; dropping an unknown session is a
// no-op, which makes a duplicate disconnect harmless.
func (r *Registry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// RoomExists reports whether roomID has an active record.
func (r *Registry) RoomExists(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// Rooms returns a snapshot of every active room sorted by member count,
// then id.
func (r *Registry) Rooms() []core.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]core.RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		infos = append(infos, core.RoomInfo{
			ID:    id,
			Users: len(room.members),
			Files: len(room.files),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Users == infos[j].Users {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].Users > infos[j].Users
	})

	return infos
}
