package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"caseforge/core"
	"caseforge/stores/memory"

	"github.com/go-chi/chi/v5"
)

func newRouter(store core.BlobStore) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/assets/{key}", HandleGet(store))
	return r
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServeStoredAsset(t *testing.T) {
	store := memory.NewStore()
	asset, err := store.Put(context.Background(), []byte("png bytes"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	rec := get(t, newRouter(store), "/assets/"+asset.Key)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	if rec.Body.String() != "png bytes" {
		t.Errorf("body %q", rec.Body.String())
	}
}

func TestMissingAsset(t *testing.T) {
	rec := get(t, newRouter(memory.NewStore()), "/assets/gone.png")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

// writeOnlyStore mimics a backend whose URLs never point at this service.
type writeOnlyStore struct{}

func (writeOnlyStore) Put(ctx context.Context, data []byte, mimeType string) (*core.UploadedAsset, error) {
	return &core.UploadedAsset{URL: "https://bucket.example.com/k", Key: "k"}, nil
}

func (writeOnlyStore) Delete(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func TestNonReadableBackend(t *testing.T) {
	rec := get(t, newRouter(writeOnlyStore{}), "/assets/k")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}
