// Package assets serves stored design blobs back over HTTP for the store
// backends whose uploaded URLs point at this service (filesystem, sqlite,
// in-memory). The s3 backend hands out bucket URLs and never hits this route.
package assets

import (
	"errors"
	"net/http"
	"strconv"

	"caseforge/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

func HandleGet(store core.BlobStore) http.HandlerFunc {
	reader, readable := store.(core.BlobReader)
	return func(w http.ResponseWriter, r *http.Request) {
		if !readable {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Asset not found"})
			return
		}

		key := chi.URLParam(r, "key")
		if key == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Asset key is required"})
			return
		}

		data, mimeType, err := reader.Fetch(r.Context(), key)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Asset not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error": err,
				"key":   key,
			}).Error("Failed to read asset")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to read asset"})
			return
		}

		// Keys are ulid-derived and content never changes under a key.
		w.Header().Set("Content-Type", mimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Write(data)
	}
}
