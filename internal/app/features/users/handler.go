// Package users implements the unauthenticated user admin endpoints.
package users

import (
	"encoding/json"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/coverhub/internal/app/store/users"
	"github.com/dalemusser/coverhub/internal/app/system/respond"
	"github.com/dalemusser/coverhub/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

// List handles GET /api/users and returns the bare user array.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		h.Log.Error("user list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch users", err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, users)
}

type createRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Create handles POST /api/users. Unlike register, there is no confirm
// password and the created user is returned bare, without a token.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Validation failed", "Invalid request body")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "Validation failed",
			"First name, last name, email, and password are required")
		return
	}

	exists, err := h.Users.EmailExists(r.Context(), req.Email)
	if err != nil {
		h.Log.Error("user create: email lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Failed to create user", err.Error())
		return
	}
	if exists {
		respond.Error(w, http.StatusConflict, "User already exists",
			"A user with this email already exists")
		return
	}

	user, err := h.Users.Create(r.Context(), models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			respond.Error(w, http.StatusConflict, "User already exists",
				"A user with this email already exists")
			return
		}
		h.Log.Error("user create failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Failed to create user", err.Error())
		return
	}

	respond.JSON(w, http.StatusCreated, user)
}
