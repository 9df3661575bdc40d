package roomsapi

import (
	"net/http"

	"roomdrop-server/core"

	"github.com/go-chi/render"
)

// RoomLister is the registry view this API needs.
type RoomLister interface {
	Rooms() []core.RoomInfo
}

// HandleList returns the active rooms with member and file counts.
func HandleList(lister RoomLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := lister.Rooms()
		if rooms == nil {
			rooms = []core.RoomInfo{}
		}
		render.JSON(w, r, rooms)
	}
}
