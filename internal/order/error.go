package order

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid line items")
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrForbidden     = errors.New("forbidden")
)

// ProductNotFoundError identifies the first requested product that does not
// exist in the catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}
