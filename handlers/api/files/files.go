package files

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"roomdrop-server/core"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func contentType(handle string) string {
	if ct := mime.TypeByExtension(filepath.Ext(handle)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func serveFile(store core.FileStore, attachment bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := chi.URLParam(r, "storedName")
		log := logrus.WithField("handle", handle)

		file, err := store.Retrieve(r.Context(), handle)
		if err != nil {
			if errors.Is(err, core.ErrFileNotFound) {
				http.Error(w, "File not found", http.StatusNotFound)
				return
			}
			log.WithError(err).Error("Failed to retrieve file")
			http.Error(w, "Failed to retrieve file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType(handle))
		if attachment {
			w.Header().Set("Content-Disposition",
				fmt.Sprintf("attachment; filename=%q", core.OriginalName(handle)))
		}

		if _, err := w.Write(file.Data.Bytes()); err != nil {
			log.WithError(err).Warn("Failed to write file response")
		}
	}
}

// HandleDownload serves a stored blob as an attachment.
func HandleDownload(store core.FileStore) http.HandlerFunc {
	return serveFile(store, true)
}

// HandleServe serves a stored blob inline, for previews.
func HandleServe(store core.FileStore) http.HandlerFunc {
	return serveFile(store, false)
}
