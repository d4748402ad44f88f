// Package orders is the JWT-guarded operator surface: it lists the committed
// design files for an order so a print operator can pull the full-bleed
// raster for production.
package orders

import (
	"errors"
	"net/http"

	"caseforge/core"
	"caseforge/handlers/auth"
	"caseforge/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type designEntry struct {
	LineItemID string               `json:"line_item_id"`
	Title      string               `json:"title"`
	Quantity   int                  `json:"quantity"`
	Design     *core.DesignMetadata `json:"design"`
}

func HandleGetOrderDesigns(orders core.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.OperatorClaims)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Operator claims not found"})
			return
		}

		orderID := chi.URLParam(r, "orderID")
		if orderID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Order ID is required"})
			return
		}

		order, err := orders.GetOrder(r.Context(), orderID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Order not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"orderID":  orderID,
				"operator": claims.Subject,
			}).Error("Failed to load order")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to load order"})
			return
		}

		designs := []designEntry{}
		for _, item := range order.Items {
			meta, ok := core.ParseDesignMetadata(item.Metadata)
			if !ok {
				continue
			}
			designs = append(designs, designEntry{
				LineItemID: item.ID,
				Title:      item.Title,
				Quantity:   item.Quantity,
				Design:     meta,
			})
		}

		logrus.WithFields(logrus.Fields{
			"orderID":  orderID,
			"operator": claims.Subject,
			"designs":  len(designs),
		}).Info("Operator fetched order designs")

		render.JSON(w, r, map[string]any{
			"order_id": order.ID,
			"status":   order.Status,
			"designs":  designs,
		})
	}
}
