package order

import "time"

// LineItemInput is a requested (product, quantity) pair before validation.
type LineItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// LineItem is a validated line item with the unit price observed during the
// reservation that backed it. Immutable once the order is created.
type LineItem struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type Order struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Items      []LineItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}
