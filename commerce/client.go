// Package commerce is the customizer's client for the Commerce Backend. The
// backend exclusively owns carts, line items and orders; everything here is
// stateless request/response with bounded timeouts.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"caseforge/core"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every call against the Commerce Backend.
const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a client for the storefront API at baseURL. A zero
// timeout falls back to DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// doJSON issues one request and decodes the response body into out (when out
// is non-nil). Non-2xx statuses other than 404 are returned as errors with
// the body included for server-side logs only.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("commerce request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return core.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		logrus.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
			"body":   string(detail),
		}).Error("commerce backend returned an error")
		return fmt.Errorf("commerce backend returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) GetOrCreateCart(ctx context.Context, countryCode string) (*core.Cart, error) {
	var resp struct {
		Cart core.Cart `json:"cart"`
	}
	body := map[string]string{"country_code": countryCode}
	if err := c.doJSON(ctx, http.MethodPost, "/store/carts", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

func (c *Client) GetCart(ctx context.Context, cartID string) (*core.Cart, error) {
	var resp struct {
		Cart core.Cart `json:"cart"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/store/carts/"+cartID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

// FindLineItem resolves a line item within a cart. Both a missing cart and a
// missing item map to core.ErrNotFound.
func (c *Client) FindLineItem(ctx context.Context, cartID, lineItemID string) (*core.LineItem, error) {
	cart, err := c.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	for i := range cart.Items {
		if cart.Items[i].ID == lineItemID {
			return &cart.Items[i], nil
		}
	}
	return nil, fmt.Errorf("line item %q in cart %q: %w", lineItemID, cartID, core.ErrNotFound)
}

// UpdateLineItemMetadata merges metadata onto a line item, last write wins.
// Re-running the same update is safe.
func (c *Client) UpdateLineItemMetadata(ctx context.Context, lineItemID string, update core.MetadataUpdate) error {
	return c.doJSON(ctx, http.MethodPost, "/store/line-items/"+lineItemID+"/metadata", update, nil)
}

func (c *Client) CreateLineItem(ctx context.Context, cartID string, item core.NewLineItem) (*core.LineItem, error) {
	var resp struct {
		LineItem core.LineItem `json:"line_item"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/store/carts/"+cartID+"/line-items", item, &resp); err != nil {
		return nil, err
	}
	return &resp.LineItem, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*core.Order, error) {
	var resp struct {
		Order core.Order `json:"order"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/store/orders/"+orderID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}
