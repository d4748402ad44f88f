// Package events receives Commerce Backend lifecycle webhooks. Cleanup is
// fire-and-forget relative to the commerce workflow: a recognized event shape
// is always acknowledged with 200 regardless of per-key outcomes.
package events

import (
	"net/http"

	"caseforge/core"
	"caseforge/reconciler"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

func HandleOrderEvent(rec *reconciler.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event core.OrderEvent
		if err := render.DecodeJSON(r.Body, &event); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid event body"})
			return
		}
		if event.Type == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Event type is required"})
			return
		}

		results := rec.HandleOrderEvent(r.Context(), event)
		logrus.WithFields(logrus.Fields{
			"type":    event.Type,
			"orderID": event.Order.ID,
			"cleaned": len(results),
		}).Info("Processed order event")

		render.JSON(w, r, map[string]any{"received": true})
	}
}
