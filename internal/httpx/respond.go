package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error     string `json:"error"`
	ProductID string `json:"product_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
}

// writeError maps business-rule failures to structured responses. Anything
// unrecognized is an internal failure: logged in full, reported generically.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var pnf *order.ProductNotFoundError
	if errors.As(err, &pnf) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: pnf.Error(), ProductID: pnf.ProductID})
		return
	}

	var ise *product.InsufficientStockError
	if errors.As(err, &ise) {
		writeJSON(w, http.StatusConflict, errorBody{
			Error:     ise.Error(),
			ProductID: ise.ProductID,
			Requested: ise.Requested,
			Available: ise.Available,
		})
		return
	}

	switch {
	case errors.Is(err, order.ErrInvalidInput),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, product.ErrInvalidProduct),
		errors.Is(err, user.ErrUserExists):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, user.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, order.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, user.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		logger.FromCtx(ctx).Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}
