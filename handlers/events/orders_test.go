package events

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"caseforge/core"
	"caseforge/reconciler"
	"caseforge/stores/memory"
)

func post(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v2/events/orders", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestOrderCancelledCleansBlobs(t *testing.T) {
	store := memory.NewStore()
	handler := HandleOrderEvent(reconciler.New(store))

	previewAsset, err := store.Put(context.Background(), []byte("preview"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	printAsset, err := store.Put(context.Background(), []byte("print"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	rec := post(t, handler, core.OrderEvent{
		Type: core.OrderEventCancelled,
		Order: core.Order{
			ID: "order_1",
			Items: []core.LineItem{{
				ID: "item_1",
				Metadata: map[string]string{
					core.MetaIsCustomized: "true",
					core.MetaPreviewKey:   previewAsset.Key,
					core.MetaPrintFileKey: printAsset.Key,
				},
			}},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d blobs, want 0", store.Len())
	}
}

func TestOrderCompletedAlsoCleans(t *testing.T) {
	store := memory.NewStore()
	handler := HandleOrderEvent(reconciler.New(store))

	asset, err := store.Put(context.Background(), []byte("print"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	rec := post(t, handler, core.OrderEvent{
		Type: core.OrderEventCompleted,
		Order: core.Order{Items: []core.LineItem{{
			Metadata: map[string]string{
				core.MetaIsCustomized: "true",
				core.MetaPrintFileKey: asset.Key,
			},
		}}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d blobs, want 0", store.Len())
	}
}

func TestUnknownEventAcknowledged(t *testing.T) {
	handler := HandleOrderEvent(reconciler.New(memory.NewStore()))

	rec := post(t, handler, core.OrderEvent{Type: "order.updated"})
	if rec.Code != http.StatusOK {
		t.Errorf("status %d, want 200", rec.Code)
	}
}

func TestMissingTypeRejected(t *testing.T) {
	handler := HandleOrderEvent(reconciler.New(memory.NewStore()))

	rec := post(t, handler, map[string]any{"order": map[string]any{"id": "order_1"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}
