package lineitems

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"caseforge/core"
	"caseforge/stores/memory"
	"caseforge/uploads"
)

type cartStub struct {
	updates map[string]core.MetadataUpdate
	fail    error
}

func (s *cartStub) GetOrCreateCart(ctx context.Context, countryCode string) (*core.Cart, error) {
	return &core.Cart{ID: "cart_1"}, nil
}

func (s *cartStub) FindLineItem(ctx context.Context, cartID, lineItemID string) (*core.LineItem, error) {
	if cartID != "cart_1" || lineItemID != "item_1" {
		return nil, core.ErrNotFound
	}
	return &core.LineItem{ID: lineItemID}, nil
}

func (s *cartStub) UpdateLineItemMetadata(ctx context.Context, lineItemID string, update core.MetadataUpdate) error {
	if s.fail != nil {
		return s.fail
	}
	if s.updates == nil {
		s.updates = make(map[string]core.MetadataUpdate)
	}
	s.updates[lineItemID] = update
	return nil
}

func (s *cartStub) CreateLineItem(ctx context.Context, cartID string, item core.NewLineItem) (*core.LineItem, error) {
	return &core.LineItem{ID: "item_new"}, nil
}

func post(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleUpdateMetadata(t *testing.T) {
	carts := &cartStub{}
	handler := HandleUpdateMetadata(uploads.NewService(memory.NewStore(), carts))

	rec := post(t, handler, map[string]any{
		"cart_id":      "cart_1",
		"line_item_id": "item_1",
		"metadata": map[string]string{
			core.MetaIsCustomized: "true",
			core.MetaPreviewKey:   "p.png",
		},
		"unit_price": 2590,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	update, ok := carts.updates["item_1"]
	if !ok {
		t.Fatal("no update recorded")
	}
	if update.UnitPrice == nil || *update.UnitPrice != 2590 {
		t.Errorf("unit price not forwarded: %+v", update)
	}
}

func TestHandleUpdateMetadataMissingFields(t *testing.T) {
	handler := HandleUpdateMetadata(uploads.NewService(memory.NewStore(), &cartStub{}))

	rec := post(t, handler, map[string]any{
		"line_item_id": "item_1",
		"metadata":     map[string]string{core.MetaIsCustomized: "true"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing cart_id: status %d, want 400", rec.Code)
	}
}

func TestHandleUpdateMetadataNotFound(t *testing.T) {
	handler := HandleUpdateMetadata(uploads.NewService(memory.NewStore(), &cartStub{}))

	rec := post(t, handler, map[string]any{
		"cart_id":      "cart_1",
		"line_item_id": "item_unknown",
		"metadata":     map[string]string{core.MetaIsCustomized: "true"},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestHandleUpdateMetadataBackendFailure(t *testing.T) {
	carts := &cartStub{fail: errors.New("backend down")}
	handler := HandleUpdateMetadata(uploads.NewService(memory.NewStore(), carts))

	rec := post(t, handler, map[string]any{
		"cart_id":      "cart_1",
		"line_item_id": "item_1",
		"metadata":     map[string]string{core.MetaIsCustomized: "true"},
	})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status %d, want 500", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("backend down")) {
		t.Error("internal error detail leaked to the client")
	}
}
