package export

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"sync"
	"time"
)

type (
	// OverlayProvider resolves a device's externally hosted overlay asset
	// (bezel, shadows) for realistic preview rendering.
	OverlayProvider interface {
		Overlay(ctx context.Context, ref string) (image.Image, error)
	}

	// NoOverlay skips the realistic overlay entirely; previews render flat.
	NoOverlay struct{}

	// HTTPOverlayProvider fetches overlay assets over HTTP and caches the
	// decoded bitmaps. Device configs are immutable, so cache entries never
	// expire.
	HTTPOverlayProvider struct {
		client *http.Client

		mu    sync.Mutex
		cache map[string]image.Image
	}
)

func (NoOverlay) Overlay(context.Context, string) (image.Image, error) { return nil, nil }

func NewHTTPOverlayProvider(timeout time.Duration) *HTTPOverlayProvider {
	return &HTTPOverlayProvider{
		client: &http.Client{Timeout: timeout},
		cache:  make(map[string]image.Image),
	}
}

func (p *HTTPOverlayProvider) Overlay(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, nil
	}
	p.mu.Lock()
	if img, ok := p.cache[ref]; ok {
		p.mu.Unlock()
		return img, nil
	}
	p.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overlay asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overlay asset fetch returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode overlay asset: %w", err)
	}

	p.mu.Lock()
	p.cache[ref] = img
	p.mu.Unlock()
	return img, nil
}
