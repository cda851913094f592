package httpx

import (
	"encoding/json"
	"net/http"

	"storefront-be/internal/middleware"
	"storefront-be/internal/user"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	Service user.Service
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileResp struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     user.Role `json:"role"`
}

func (h *UserHandler) Register(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.With(middleware.RequireAuth).Get("/profile", h.profile)
	})
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "username, email and password are required"})
		return
	}

	u, err := h.Service.Register(r.Context(), req.Username, req.Email, req.Password, user.Role(req.Role))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, profileResp{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
}

func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "email and password are required"})
		return
	}

	token, _, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *UserHandler) profile(w http.ResponseWriter, r *http.Request) {
	id, _ := user.FromContext(r.Context())

	u, err := h.Service.GetProfile(r.Context(), id.UserID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResp{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
}
