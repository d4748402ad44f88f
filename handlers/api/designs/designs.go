// Package designs exposes the design-upload and design-cleanup endpoints the
// storefront customizer calls around checkout.
package designs

import (
	"errors"
	"net/http"

	"caseforge/core"
	"caseforge/reconciler"
	"caseforge/uploads"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type uploadRequest struct {
	CartID string         `json:"cart_id"`
	Files  []uploads.File `json:"files"`
}

type cleanupRequest struct {
	FileKeys []string `json:"file_keys"`
}

// renderError maps the error taxonomy onto HTTP statuses. Validation messages
// are safe to surface; everything else gets a generic message and a log line.
func renderError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrCartRequired):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "Cart ID is required"})
	case core.IsValidation(err):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": err.Error()})
	case errors.Is(err, core.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Not found"})
	default:
		logrus.WithField("error", err).Error(fallback)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": fallback})
	}
}

func HandleUpload(svc *uploads.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploadRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		assets, err := svc.Upload(r.Context(), req.CartID, req.Files)
		if err != nil {
			renderError(w, r, err, "Failed to upload design files")
			return
		}

		render.JSON(w, r, map[string]any{"uploads": assets})
	}
}

func HandleCleanup(rec *reconciler.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cleanupRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		results, err := rec.CleanupKeys(r.Context(), req.FileKeys)
		if err != nil {
			renderError(w, r, err, "Failed to clean up design files")
			return
		}

		render.JSON(w, r, map[string]any{
			"success": true,
			"results": results,
		})
	}
}
