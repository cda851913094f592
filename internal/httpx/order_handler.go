package httpx

import (
	"encoding/json"
	"net/http"

	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/user"

	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	Service order.Service
}

type placeOrderReq struct {
	Items []order.LineItemInput `json:"items"`
}

type setStatusReq struct {
	Status string `json:"status"`
}

func (h *OrderHandler) Register(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/", h.list)
		r.Post("/", h.place)
		r.Get("/{id}", h.get)
		r.With(middleware.RequireRole(user.RoleAdmin)).Put("/{id}/status", h.setStatus)
	})
}

func (h *OrderHandler) place(w http.ResponseWriter, r *http.Request) {
	identity, _ := user.FromContext(r.Context())

	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
		return
	}

	o, err := h.Service.PlaceOrder(r.Context(), identity, req.Items)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := user.FromContext(r.Context())

	orders, err := h.Service.ListOrders(r.Context(), identity)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := user.FromContext(r.Context())

	o, err := h.Service.GetOrder(r.Context(), chi.URLParam(r, "id"), identity)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	o, err := h.Service.SetStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}
