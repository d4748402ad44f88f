package uploads

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"caseforge/core"
	"caseforge/stores/memory"
)

type cartMock struct {
	items   map[string]*core.LineItem
	updates map[string]core.MetadataUpdate
	fail    error
}

func newCartMock() *cartMock {
	return &cartMock{
		items: map[string]*core.LineItem{
			"item_1": {ID: "item_1", VariantID: "variant_case", Quantity: 1},
		},
		updates: make(map[string]core.MetadataUpdate),
	}
}

func (m *cartMock) GetOrCreateCart(ctx context.Context, countryCode string) (*core.Cart, error) {
	return &core.Cart{ID: "cart_1", CountryCode: countryCode}, nil
}

func (m *cartMock) FindLineItem(ctx context.Context, cartID, lineItemID string) (*core.LineItem, error) {
	if cartID != "cart_1" {
		return nil, core.ErrNotFound
	}
	item, ok := m.items[lineItemID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return item, nil
}

func (m *cartMock) UpdateLineItemMetadata(ctx context.Context, lineItemID string, update core.MetadataUpdate) error {
	if m.fail != nil {
		return m.fail
	}
	m.updates[lineItemID] = update
	return nil
}

func (m *cartMock) CreateLineItem(ctx context.Context, cartID string, item core.NewLineItem) (*core.LineItem, error) {
	return &core.LineItem{ID: "item_new", VariantID: item.VariantID, Quantity: item.Quantity}, nil
}

// failingStore delegates to an in-memory store but fails Put after a number
// of successes, to exercise the abort-before-commit path.
type failingStore struct {
	core.BlobStore
	puts    int
	failsAt int
}

func (s *failingStore) Put(ctx context.Context, data []byte, mimeType string) (*core.UploadedAsset, error) {
	s.puts++
	if s.puts >= s.failsAt {
		return nil, errors.New("storage unavailable")
	}
	return s.BlobStore.Put(ctx, data, mimeType)
}

func pngFile(name string) File {
	return File{
		Name:     name,
		Content:  base64.StdEncoding.EncodeToString([]byte("raster-bytes-" + name)),
		MimeType: "image/png",
	}
}

func TestUploadStoresBothFiles(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, newCartMock())

	assets, err := svc.Upload(context.Background(), "cart_1", []File{
		pngFile("preview.png"),
		pngFile("print.png"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("got %d assets, want 2", len(assets))
	}
	for _, a := range assets {
		if a.Key == "" || a.URL == "" {
			t.Errorf("asset missing key or url: %+v", a)
		}
		if !strings.HasSuffix(a.Key, ".png") {
			t.Errorf("key %q should carry the png extension", a.Key)
		}
		if _, ok := store.Get(a.Key); !ok {
			t.Errorf("key %q not present in store", a.Key)
		}
	}
}

func TestUploadRequiresCart(t *testing.T) {
	svc := NewService(memory.NewStore(), newCartMock())

	_, err := svc.Upload(context.Background(), "", []File{pngFile("preview.png")})
	if !errors.Is(err, core.ErrCartRequired) {
		t.Fatalf("got %v, want core.ErrCartRequired", err)
	}
}

func TestUploadFileCountBounds(t *testing.T) {
	svc := NewService(memory.NewStore(), newCartMock())

	_, err := svc.Upload(context.Background(), "cart_1", nil)
	if err == nil || err.Error() != "No files provided" {
		t.Errorf("empty request: got %v, want %q", err, "No files provided")
	}

	_, err = svc.Upload(context.Background(), "cart_1", []File{
		pngFile("a.png"), pngFile("b.png"), pngFile("c.png"),
	})
	if err == nil || err.Error() != "Maximum 2 files allowed" {
		t.Errorf("three files: got %v, want %q", err, "Maximum 2 files allowed")
	}
}

func TestUploadRejectsDisallowedMime(t *testing.T) {
	svc := NewService(memory.NewStore(), newCartMock())

	f := pngFile("design.gif")
	f.MimeType = "image/gif"
	_, err := svc.Upload(context.Background(), "cart_1", []File{f})
	if !core.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestUploadSizeCap(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, newCartMock())

	// 5 MiB at the 1.37x base64 expansion factor.
	if MaxEncodedBytes != 7182745 {
		t.Fatalf("MaxEncodedBytes = %d, want 7182745", MaxEncodedBytes)
	}

	// Largest valid base64 length not exceeding the cap.
	atCap := File{
		Name:     "big.png",
		Content:  strings.Repeat("A", MaxEncodedBytes-MaxEncodedBytes%4),
		MimeType: "image/png",
	}
	if _, err := svc.Upload(context.Background(), "cart_1", []File{atCap}); err != nil {
		t.Fatalf("at-cap upload: %v", err)
	}

	over := File{
		Name:     "huge.png",
		Content:  strings.Repeat("A", MaxEncodedBytes+1),
		MimeType: "image/png",
	}
	_, err := svc.Upload(context.Background(), "cart_1", []File{over})
	if !core.IsValidation(err) {
		t.Fatalf("over-cap upload: got %v, want validation error", err)
	}
}

func TestUploadInvalidBase64RollsBack(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, newCartMock())

	_, err := svc.Upload(context.Background(), "cart_1", []File{
		pngFile("preview.png"),
		{Name: "print.png", Content: "not-base64!!!", MimeType: "image/png"},
	})
	if !core.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d blobs after aborted upload, want 0", store.Len())
	}
}

func TestUploadStorageFailureRollsBack(t *testing.T) {
	inner := memory.NewStore()
	svc := NewService(&failingStore{BlobStore: inner, failsAt: 2}, newCartMock())

	_, err := svc.Upload(context.Background(), "cart_1", []File{
		pngFile("preview.png"),
		pngFile("print.png"),
	})
	if err == nil {
		t.Fatal("expected error when the second put fails")
	}
	if inner.Len() != 0 {
		t.Errorf("store holds %d blobs after aborted upload, want 0", inner.Len())
	}
}

func TestCommitAttachesMetadata(t *testing.T) {
	carts := newCartMock()
	svc := NewService(memory.NewStore(), carts)

	price := int64(3490)
	update := core.MetadataUpdate{
		Metadata: map[string]string{
			core.MetaIsCustomized: "true",
			core.MetaPreviewKey:   "k1.png",
			core.MetaPrintFileKey: "k2.png",
		},
		UnitPrice: &price,
	}
	if err := svc.Commit(context.Background(), "cart_1", "item_1", update); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, ok := carts.updates["item_1"]
	if !ok {
		t.Fatal("no metadata update recorded")
	}
	if got.Metadata[core.MetaPreviewKey] != "k1.png" || *got.UnitPrice != 3490 {
		t.Errorf("unexpected update %+v", got)
	}
}

func TestCommitUnknownLineItem(t *testing.T) {
	svc := NewService(memory.NewStore(), newCartMock())

	update := core.MetadataUpdate{Metadata: map[string]string{core.MetaIsCustomized: "true"}}
	err := svc.Commit(context.Background(), "cart_1", "item_missing", update)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing item: got %v, want core.ErrNotFound", err)
	}

	err = svc.Commit(context.Background(), "cart_missing", "item_1", update)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing cart: got %v, want core.ErrNotFound", err)
	}
}

func TestCommitValidation(t *testing.T) {
	svc := NewService(memory.NewStore(), newCartMock())

	if err := svc.Commit(context.Background(), "", "item_1", core.MetadataUpdate{}); !core.IsValidation(err) {
		t.Errorf("missing cart_id: got %v, want validation error", err)
	}
	if err := svc.Commit(context.Background(), "cart_1", "item_1", core.MetadataUpdate{}); !core.IsValidation(err) {
		t.Errorf("empty metadata: got %v, want validation error", err)
	}
}
