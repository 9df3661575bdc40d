package roomsapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"roomdrop-server/core"
)

type staticLister struct {
	rooms []core.RoomInfo
}

func (s *staticLister) Rooms() []core.RoomInfo { return s.rooms }

func TestHandleList(t *testing.T) {
	lister := &staticLister{rooms: []core.RoomInfo{
		{ID: "busy", Users: 3, Files: 2},
		{ID: "quiet", Users: 1, Files: 0},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	HandleList(lister)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var got []core.RoomInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rooms: got %d, want 2", len(got))
	}
	if got[0].ID != "busy" || got[0].Users != 3 || got[0].Files != 2 {
		t.Errorf("first room: got %+v", got[0])
	}
}

func TestHandleList_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	HandleList(&staticLister{})(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "[]\n" && got != "[]" {
		t.Errorf("empty listing: got %q, want []", got)
	}
}
