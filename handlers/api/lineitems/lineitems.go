// Package lineitems exposes the commit half of the upload protocol: attaching
// design metadata to a cart line item via the Commerce Backend.
package lineitems

import (
	"errors"
	"net/http"

	"caseforge/core"
	"caseforge/uploads"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type metadataRequest struct {
	CartID     string            `json:"cart_id"`
	LineItemID string            `json:"line_item_id"`
	Metadata   map[string]string `json:"metadata"`
	UnitPrice  *int64            `json:"unit_price,omitempty"`
}

func HandleUpdateMetadata(svc *uploads.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req metadataRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		update := core.MetadataUpdate{Metadata: req.Metadata, UnitPrice: req.UnitPrice}
		err := svc.Commit(r.Context(), req.CartID, req.LineItemID, update)
		switch {
		case err == nil:
			render.JSON(w, r, map[string]bool{"success": true})
		case core.IsValidation(err):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
		case errors.Is(err, core.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Cart or line item not found"})
		default:
			logrus.WithFields(logrus.Fields{
				"error":      err,
				"cartID":     req.CartID,
				"lineItemID": req.LineItemID,
			}).Error("Failed to update line item metadata")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to update line item metadata"})
		}
	}
}
