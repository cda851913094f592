package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, identity user.Identity, items []order.LineItemInput) (*order.Order, error) {
	args := m.Called(ctx, identity, items)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id string, identity user.Identity) (*order.Order, error) {
	args := m.Called(ctx, id, identity)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, identity user.Identity) ([]*order.Order, error) {
	args := m.Called(ctx, identity)
	if o := args.Get(0); o != nil {
		return o.([]*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) SetStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	args := m.Called(ctx, id, status)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

// orderRouter mounts the order routes with a fixed identity injected ahead of
// the auth guards, standing in for the token middleware.
func orderRouter(svc order.Service, identity *user.Identity) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if identity != nil {
				req = req.WithContext(user.NewContext(req.Context(), *identity))
			}
			next.ServeHTTP(w, req)
		})
	})
	(&OrderHandler{Service: svc}).Register(r)
	return r
}

var (
	testBuyer = user.Identity{UserID: "user-1", Username: "alice", Role: user.RoleUser}
	testAdmin = user.Identity{UserID: "admin-1", Username: "root", Role: user.RoleAdmin}
)

func TestOrderHandler_Place(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		svc := new(MockOrderService)
		placed := &order.Order{
			ID:     "ord-1",
			UserID: testBuyer.UserID,
			Items: []order.LineItem{
				{ProductID: "p1", Quantity: 2, PriceCents: 1500},
			},
			TotalCents: 3000,
			Status:     order.StatusPending,
		}
		svc.On("PlaceOrder", mock.Anything, testBuyer,
			[]order.LineItemInput{{ProductID: "p1", Quantity: 2}}).
			Return(placed, nil)

		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodPost, "/api/orders",
			strings.NewReader(`{"items":[{"product_id":"p1","quantity":2}]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var got order.Order
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "ord-1", got.ID)
		assert.Equal(t, int64(3000), got.TotalCents)
		assert.Equal(t, order.StatusPending, got.Status)
		svc.AssertExpectations(t)
	})

	t.Run("InsufficientStockConflict", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("PlaceOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &product.InsufficientStockError{ProductID: "p1", Requested: 3, Available: 2})

		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodPost, "/api/orders",
			strings.NewReader(`{"items":[{"product_id":"p1","quantity":3}]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)

		var body errorBody
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "p1", body.ProductID)
		assert.Equal(t, 3, body.Requested)
		assert.Equal(t, 2, body.Available)
	})

	t.Run("UnknownProductBadRequest", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("PlaceOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &order.ProductNotFoundError{ProductID: "ghost"})

		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodPost, "/api/orders",
			strings.NewReader(`{"items":[{"product_id":"ghost","quantity":1}]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("EmptyItemsBadRequest", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("PlaceOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, order.ErrInvalidInput)

		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"items":[]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		svc := new(MockOrderService)
		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AnonymousUnauthorized", func(t *testing.T) {
		svc := new(MockOrderService)
		router := orderRouter(svc, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/orders",
			strings.NewReader(`{"items":[{"product_id":"p1","quantity":1}]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InternalErrorIsGeneric", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("PlaceOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("pq: connection refused"))

		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodPost, "/api/orders",
			strings.NewReader(`{"items":[{"product_id":"p1","quantity":1}]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var body errorBody
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "internal server error", body.Error)
	})
}

func TestOrderHandler_Get(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("GetOrder", mock.Anything, "ord-1", testBuyer).
			Return(&order.Order{ID: "ord-1", UserID: testBuyer.UserID, Status: order.StatusPending}, nil)

		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodGet, "/api/orders/ord-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ForeignOrderForbidden", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("GetOrder", mock.Anything, "ord-2", testBuyer).
			Return(nil, order.ErrForbidden)

		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodGet, "/api/orders/ord-2", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("GetOrder", mock.Anything, "ghost", testBuyer).
			Return(nil, order.ErrOrderNotFound)

		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodGet, "/api/orders/ghost", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOrderHandler_List(t *testing.T) {
	t.Run("EmptyListIsJSONArray", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("ListOrders", mock.Anything, testBuyer).Return(nil, nil)

		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	})
}

func TestOrderHandler_SetStatus(t *testing.T) {
	t.Run("AdminUpdates", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("SetStatus", mock.Anything, "ord-1", order.StatusShipped).
			Return(&order.Order{ID: "ord-1", Status: order.StatusShipped}, nil)

		router := orderRouter(svc, &testAdmin)
		req := httptest.NewRequest(http.MethodPut, "/api/orders/ord-1/status",
			strings.NewReader(`{"status":"shipped"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got order.Order
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, order.StatusShipped, got.Status)
	})

	t.Run("PlainUserForbidden", func(t *testing.T) {
		svc := new(MockOrderService)
		router := orderRouter(svc, &testBuyer)
		req := httptest.NewRequest(http.MethodPut, "/api/orders/ord-1/status",
			strings.NewReader(`{"status":"shipped"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		svc.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownStatusBadRequest", func(t *testing.T) {
		svc := new(MockOrderService)
		router := orderRouter(svc, &testAdmin)
		req := httptest.NewRequest(http.MethodPut, "/api/orders/ord-1/status",
			strings.NewReader(`{"status":"archived"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}
