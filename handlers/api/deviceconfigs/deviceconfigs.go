// Package deviceconfigs serves the static device registry to the storefront
// editor.
package deviceconfigs

import (
	"errors"
	"net/http"

	"caseforge/core"
	"caseforge/devices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HandleGet serves one device config by handle, or every config when the
// path parameter is "all".
func HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		if modelID == "" || modelID == "all" {
			render.JSON(w, r, map[string]any{"devices": devices.All()})
			return
		}

		device, err := devices.Get(modelID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Unknown device model"})
				return
			}
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to load device config"})
			return
		}
		render.JSON(w, r, device)
	}
}

// HandleDetect resolves a device from product copy, falling back to the
// default device so the editor can always open.
func HandleDetect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		device, err := devices.DetectFromProduct(q.Get("handle"), q.Get("title"), q.Get("description"))
		if err != nil {
			device = devices.Default()
		}
		render.JSON(w, r, device)
	}
}
