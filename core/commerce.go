package core

import "context"

type (
	// LineItem is a single product/quantity/metadata entry in a cart or
	// order, as exposed by the Commerce Backend.
	LineItem struct {
		ID        string            `json:"id"`
		VariantID string            `json:"variant_id"`
		Title     string            `json:"title"`
		Quantity  int               `json:"quantity"`
		UnitPrice int64             `json:"unit_price"`
		Metadata  map[string]string `json:"metadata"`
	}

	Cart struct {
		ID          string     `json:"id"`
		CountryCode string     `json:"country_code"`
		Items       []LineItem `json:"items"`
	}

	Order struct {
		ID     string     `json:"id"`
		Status string     `json:"status"`
		Items  []LineItem `json:"items"`
	}

	// MetadataUpdate is a last-write-wins merge of line item metadata, with
	// an optional unit price override for case types that carry a price
	// adjustment.
	MetadataUpdate struct {
		Metadata  map[string]string `json:"metadata"`
		UnitPrice *int64            `json:"unit_price,omitempty"`
	}

	NewLineItem struct {
		VariantID string            `json:"variant_id"`
		Quantity  int               `json:"quantity"`
		Metadata  map[string]string `json:"metadata"`
	}

	// CartService is the slice of the Commerce Backend the customizer
	// consumes. The backend exclusively owns carts, line items and orders;
	// the customizer only requests metadata attachment through this
	// interface.
	CartService interface {
		GetOrCreateCart(ctx context.Context, countryCode string) (*Cart, error)
		FindLineItem(ctx context.Context, cartID, lineItemID string) (*LineItem, error)
		UpdateLineItemMetadata(ctx context.Context, lineItemID string, update MetadataUpdate) error
		CreateLineItem(ctx context.Context, cartID string, item NewLineItem) (*LineItem, error)
	}

	// OrderService resolves orders for the operator surface and the
	// event-driven cleanup path.
	OrderService interface {
		GetOrder(ctx context.Context, orderID string) (*Order, error)
	}
)

// Order lifecycle events the cleanup reconciler subscribes to. Completed is
// interpreted as fulfilled/delivered: print files are no longer needed in
// cloud storage.
const (
	OrderEventCancelled = "order.cancelled"
	OrderEventCompleted = "order.completed"
)

// OrderEvent is a Commerce Backend lifecycle notification delivering the
// order id and its line items with metadata.
type OrderEvent struct {
	Type  string `json:"type"`
	Order Order  `json:"order"`
}
