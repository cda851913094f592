package order

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog is the slice of the product store the order workflow depends on.
// Satisfied by product.Repository.
type Catalog interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
	ReserveStock(ctx context.Context, id string, qty int) error
	RestoreStock(ctx context.Context, id string, qty int) error
}

type Service interface {
	PlaceOrder(ctx context.Context, identity user.Identity, items []LineItemInput) (*Order, error)
	GetOrder(ctx context.Context, id string, identity user.Identity) (*Order, error)
	ListOrders(ctx context.Context, identity user.Identity) ([]*Order, error)
	SetStatus(ctx context.Context, id string, status Status) (*Order, error)
}

type service struct {
	repo    Repository
	catalog Catalog
	metrics *metrics.OrderMetrics
}

func NewService(repo Repository, catalog Catalog, m *metrics.OrderMetrics) Service {
	if m == nil {
		m = &metrics.OrderMetrics{}
	}
	return &service{repo: repo, catalog: catalog, metrics: m}
}

// PlaceOrder validates the requested line items, reserves stock product by
// product and persists the order. Every reservation applied before a failure
// is restored before the error is returned, so a failed call leaves no trace.
func (s *service) PlaceOrder(ctx context.Context, identity user.Identity, items []LineItemInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.String("user_id", identity.UserID),
		zap.Int("item_count", len(items)),
	)
	timer := metrics.StartTimer()

	if len(items) == 0 {
		return nil, ErrInvalidInput
	}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 {
			return nil, ErrInvalidInput
		}
	}

	// Resolve products and pre-check stock in request order. Checks run fully
	// before any mutation; the first failure wins.
	lines := make([]LineItem, 0, len(items))
	var total int64
	for _, it := range items {
		p, err := s.catalog.GetByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrProductNotFound) {
				return nil, &ProductNotFoundError{ProductID: it.ProductID}
			}
			log.Error("catalog lookup failed", zap.String("product_id", it.ProductID), zap.Error(err))
			return nil, err
		}
		if p.Stock < it.Quantity {
			s.metrics.Rejected.Inc()
			return nil, &product.InsufficientStockError{
				ProductID: p.ID,
				Requested: it.Quantity,
				Available: p.Stock,
			}
		}
		total += p.PriceCents * int64(it.Quantity)
		lines = append(lines, LineItem{
			ProductID:  p.ID,
			Quantity:   it.Quantity,
			PriceCents: p.PriceCents,
		})
	}

	// Reserve stock per product. The pre-check above can go stale under
	// concurrency; the conditional decrement is the authoritative check, and
	// a mid-flight failure rolls back every reservation already applied.
	reserved := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		if err := s.catalog.ReserveStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.compensate(ctx, reserved)

			var ise *product.InsufficientStockError
			if errors.As(err, &ise) {
				s.metrics.Rejected.Inc()
				return nil, ise
			}
			if errors.Is(err, product.ErrProductNotFound) {
				return nil, &ProductNotFoundError{ProductID: line.ProductID}
			}
			s.metrics.Failed.Inc()
			log.Error("stock reservation failed", zap.String("product_id", line.ProductID), zap.Error(err))
			return nil, err
		}
		reserved = append(reserved, line)
	}

	o := &Order{
		ID:         uuid.NewString(),
		UserID:     identity.UserID,
		Items:      lines,
		TotalCents: total,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, o); err != nil {
		// The order must not exist without its reservation, and the
		// reservation must not outlive a failed order.
		s.compensate(ctx, reserved)
		s.metrics.Failed.Inc()
		log.Error("failed to persist order", zap.String("order_id", o.ID), zap.Error(err))
		return nil, err
	}

	s.metrics.Placed.Inc()
	log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.Int64("total_cents", o.TotalCents),
		zap.Duration("duration", timer.Duration()),
	)

	return o, nil
}

// compensate restores every already-applied reservation. It runs even when
// the request context is cancelled, since the decrements it reverses have
// already been committed.
func (s *service) compensate(ctx context.Context, reserved []LineItem) {
	ctx = context.WithoutCancel(ctx)
	for _, line := range reserved {
		_ = s.catalog.RestoreStock(ctx, line.ProductID, line.Quantity)
	}
}

func (s *service) GetOrder(ctx context.Context, id string, identity user.Identity) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.IsAdmin() && o.UserID != identity.UserID {
		return nil, ErrForbidden
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, identity user.Identity) ([]*Order, error) {
	if identity.IsAdmin() {
		return s.repo.Find(ctx, nil)
	}
	return s.repo.Find(ctx, &identity.UserID)
}

// SetStatus overwrites an order's status. Any defined status may replace any
// other; no transition graph is enforced.
func (s *service) SetStatus(ctx context.Context, id string, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	o, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("order status updated",
		zap.String("order_id", id),
		zap.String("status", string(status)),
	)

	return o, nil
}
