// Package authapi implements registration, login, and the profile endpoint.
package authapi

import (
	"encoding/json"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/coverhub/internal/app/store/users"
	"github.com/dalemusser/coverhub/internal/app/system/auth"
	"github.com/dalemusser/coverhub/internal/app/system/ratelimit"
	"github.com/dalemusser/coverhub/internal/app/system/respond"
	"github.com/dalemusser/coverhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users  *userstore.Store
	Tokens *auth.TokenIssuer
	Limits *ratelimit.AuthLimiter // nil disables throttling
	Log    *zap.Logger
}

func NewHandler(users *userstore.Store, tokens *auth.TokenIssuer, limits *ratelimit.AuthLimiter, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Tokens: tokens, Limits: limits, Log: logger}
}

// throttle enforces the auth limiter when one is configured. Returns false
// after writing the 429 response.
func (h *Handler) throttle(w http.ResponseWriter, r *http.Request, email string) bool {
	if h.Limits == nil {
		return true
	}
	allowed, reason := h.Limits.Check(r, email)
	if !allowed {
		respond.Error(w, http.StatusTooManyRequests, "Too many requests", reason)
		return false
	}
	return true
}

type registerRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.throttle(w, r, "") {
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Validation failed", "Invalid request body")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" ||
		req.Password == "" || req.ConfirmPassword == "" {
		respond.Error(w, http.StatusBadRequest, "Validation failed",
			"First name, last name, email, password, and confirm password are required")
		return
	}
	if req.Password != req.ConfirmPassword {
		respond.Error(w, http.StatusBadRequest, "Validation failed",
			"Password and confirm password do not match")
		return
	}
	if len(req.Password) < 6 {
		respond.Error(w, http.StatusBadRequest, "Validation failed",
			"Password must be at least 6 characters long")
		return
	}

	exists, err := h.Users.EmailExists(r.Context(), req.Email)
	if err != nil {
		h.Log.Error("register: email lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Failed to register user", err.Error())
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
		h.Log.Error("register: create failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Failed to register user", err.Error())
		return
	}

	token, err := h.Tokens.Issue(user.ID.Hex())
	if err != nil {
		h.Log.Error("register: token issue failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Failed to register user", err.Error())
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]any{
		"message":    "User registered successfully",
		"user":       user,
		"token":      token,
		"statusCode": http.StatusCreated,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Validation failed", "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "Validation failed",
			"Email and password are required")
		return
	}
	if !h.throttle(w, r, req.Email) {
		return
	}

	user, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "Invalid credentials",
				"Invalid email or password")
			return
		}
		h.Log.Error("login failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Failed to login", err.Error())
		return
	}

	token, err := h.Tokens.Issue(user.ID.Hex())
	if err != nil {
		h.Log.Error("login: token issue failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Failed to login", err.Error())
		return
	}

	if h.Limits != nil {
		h.Limits.ResetEmail(req.Email)
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"message":    "Login successful",
		"user":       user,
		"token":      token,
		"statusCode": http.StatusOK,
	})
}

// Profile handles GET /api/auth/profile. Requires auth middleware.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Authentication failed", "No user in context")
		return
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "User not found", "User not found")
		return
	}

	user, err := h.Users.GetByID(r.Context(), oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, http.StatusNotFound, "User not found", "User not found")
			return
		}
		h.Log.Error("profile lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Failed to get profile", err.Error())
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"statusCode": http.StatusOK,
	})
}
