// Package sessions is the HTTP face of the design editor: session lifecycle,
// layer CRUD, undo/redo, and the export-and-checkout sequence that turns a
// session's document into committed line item metadata.
package sessions

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"caseforge/core"
	"caseforge/editor"
	"caseforge/export"
	"caseforge/reconciler"
	"caseforge/uploads"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// Notifier rebroadcasts session mutations to every connected editor tab.
// Wired to socket.io rooms in production; tests use the no-op.
type Notifier interface {
	Broadcast(sessionID, event string, payload any)
}

type NopNotifier struct{}

func (NopNotifier) Broadcast(string, string, any) {}

func renderError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var exportErr *core.ExportError
	switch {
	case core.IsValidation(err):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": err.Error()})
	case errors.Is(err, core.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Not found"})
	case errors.As(err, &exportErr):
		logrus.WithFields(logrus.Fields{
			"error":   err,
			"layerID": exportErr.LayerID,
		}).Error("Export failed")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Export failed, please retry"})
	default:
		logrus.WithField("error", err).Error(fallback)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": fallback})
	}
}

func sessionFrom(mgr *editor.Manager, w http.ResponseWriter, r *http.Request) *editor.Session {
	s, err := mgr.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Session not found"})
		return nil
	}
	return s
}

func sessionJSON(s *editor.Session) map[string]any {
	return map[string]any{
		"session_id": s.ID,
		"device":     s.Device,
		"state":      s.State(),
		"document":   s.Document(),
		"warnings":   s.OutsideMaskWarnings(),
	}
}

func HandleCreate(mgr *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DeviceHandle string `json:"device_handle"`
		}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		s, err := mgr.Create(req.DeviceHandle)
		if err != nil {
			renderError(w, r, err, "Failed to create session")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, sessionJSON(s))
	}
}

func HandleGet(mgr *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}
		render.JSON(w, r, sessionJSON(s))
	}
}

func HandleClose(mgr *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr.Close(chi.URLParam(r, "sessionID"))
		render.JSON(w, r, map[string]bool{"success": true})
	}
}

// HandleAddAsset registers an uploaded bitmap with the session so image
// layers can reference it.
func HandleAddAsset(mgr *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}
		data, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Content is not valid base64"})
			return
		}

		assetID, err := s.AddImageAsset(data)
		if err != nil {
			renderError(w, r, err, "Failed to register asset")
			return
		}
		render.JSON(w, r, map[string]string{"asset_id": assetID})
	}
}

func HandleAddLayer(mgr *editor.Manager, notify Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}

		var req editor.NewLayer
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		layerID, err := s.AddLayer(req)
		if err != nil {
			renderError(w, r, err, "Failed to add layer")
			return
		}
		notify.Broadcast(s.ID, "layer-added", map[string]string{"layer_id": layerID})
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]string{"layer_id": layerID})
	}
}

func HandleUpdateLayer(mgr *editor.Manager, notify Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}

		var attrs editor.LayerAttrs
		if err := render.DecodeJSON(r.Body, &attrs); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		layerID := chi.URLParam(r, "layerID")
		s.UpdateLayer(layerID, attrs)
		notify.Broadcast(s.ID, "layer-updated", map[string]string{"layer_id": layerID})
		render.JSON(w, r, map[string]bool{"success": true})
	}
}

func HandleRemoveLayer(mgr *editor.Manager, notify Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}

		layerID := chi.URLParam(r, "layerID")
		s.RemoveLayer(layerID)
		notify.Broadcast(s.ID, "layer-removed", map[string]string{"layer_id": layerID})
		render.JSON(w, r, map[string]bool{"success": true})
	}
}

func HandleReorderLayer(mgr *editor.Manager, notify Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}

		var req struct {
			ZIndex int `json:"z_index"`
		}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		layerID := chi.URLParam(r, "layerID")
		s.Reorder(layerID, req.ZIndex)
		notify.Broadcast(s.ID, "layer-reordered", map[string]string{"layer_id": layerID})
		render.JSON(w, r, map[string]bool{"success": true})
	}
}

func HandleSetBackground(mgr *editor.Manager, notify Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}

		var req struct {
			Color string `json:"color"`
		}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		s.SetBackground(req.Color)
		notify.Broadcast(s.ID, "background-changed", map[string]string{"color": req.Color})
		render.JSON(w, r, map[string]bool{"success": true})
	}
}

func HandleUndo(mgr *editor.Manager, notify Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}
		applied := s.Undo()
		if applied {
			notify.Broadcast(s.ID, "document-restored", nil)
		}
		render.JSON(w, r, map[string]any{"applied": applied, "document": s.Document()})
	}
}

func HandleRedo(mgr *editor.Manager, notify Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}
		applied := s.Redo()
		if applied {
			notify.Broadcast(s.ID, "document-restored", nil)
		}
		render.JSON(w, r, map[string]any{"applied": applied, "document": s.Document()})
	}
}

type exportRequest struct {
	CartID     string `json:"cart_id"`
	LineItemID string `json:"line_item_id"`
	CaseType   string `json:"case_type"`
	UnitPrice  *int64 `json:"unit_price,omitempty"`
}

// HandleExport runs the full export-to-commit sequence for a session: raster
// both images from one immutable snapshot, upload them, then attach the
// design metadata to the cart line item. Upload must fully complete before
// commit begins; a failed commit leaves the uploaded keys orphaned, so they
// are handed to the reconciler best-effort before reporting the failure.
func HandleExport(mgr *editor.Manager, pipeline *export.Pipeline, svc *uploads.Service, rec *reconciler.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}

		var req exportRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}
		if req.CartID == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Cart ID is required"})
			return
		}

		snap, generation, err := s.BeginExport()
		if err != nil {
			renderError(w, r, err, "Failed to start export")
			return
		}
		defer s.FinishExport(generation)

		artifact, err := pipeline.Export(r.Context(), snap)
		if err != nil {
			renderError(w, r, err, "Export failed, please retry")
			return
		}

		assets, err := svc.Upload(r.Context(), req.CartID, []uploads.File{
			{
				Name:     "preview-" + s.ID + ".png",
				Content:  base64.StdEncoding.EncodeToString(artifact.Preview),
				MimeType: "image/png",
			},
			{
				Name:     "print-" + s.ID + ".png",
				Content:  base64.StdEncoding.EncodeToString(artifact.Print),
				MimeType: "image/png",
			},
		})
		if err != nil {
			renderError(w, r, err, "Failed to upload design files")
			return
		}

		device := snap.Device
		meta := core.DesignMetadata{
			CaseType:      req.CaseType,
			DeviceModel:   device.Name,
			DeviceHandle:  device.Handle,
			PreviewImage:  assets[0].URL,
			PreviewKey:    assets[0].Key,
			PrintFile:     assets[1].URL,
			PrintFileKey:  assets[1].Key,
			PrintDPI:      device.PrintSpec.DPI,
			PrintWidthMm:  device.PrintSpec.WidthMm,
			PrintHeightMm: device.PrintSpec.HeightMm,
			PrintBleedMm:  device.BleedMm,
		}
		update := core.MetadataUpdate{Metadata: meta.ToMap(), UnitPrice: req.UnitPrice}
		if err := svc.Commit(r.Context(), req.CartID, req.LineItemID, update); err != nil {
			// The blobs are orphaned now; reclaim them before surfacing the
			// failure so a retry starts clean.
			if _, cleanupErr := rec.CleanupKeys(r.Context(), []string{assets[0].Key, assets[1].Key}); cleanupErr != nil {
				logrus.WithField("error", cleanupErr).Warn("Failed to reclaim orphaned design blobs")
			}
			renderError(w, r, err, "Failed to commit design metadata")
			return
		}

		logrus.WithFields(logrus.Fields{
			"session_id": s.ID,
			"cartID":     req.CartID,
			"lineItemID": req.LineItemID,
			"previewKey": assets[0].Key,
			"printKey":   assets[1].Key,
		}).Info("Design exported and committed")

		render.JSON(w, r, map[string]any{
			"success":  true,
			"uploads":  assets,
			"metadata": update.Metadata,
		})
	}
}

// HandlePreview rasterizes the current document and returns the preview PNG
// directly, for the editor's high-fidelity confirmation view.
func HandlePreview(mgr *editor.Manager, pipeline *export.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(mgr, w, r)
		if s == nil {
			return
		}

		snap, generation, err := s.BeginExport()
		if err != nil {
			renderError(w, r, err, "Failed to render preview")
			return
		}
		defer s.FinishExport(generation)

		data, err := pipeline.RenderPreview(r.Context(), snap)
		if err != nil {
			renderError(w, r, err, "Failed to render preview")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}
}
