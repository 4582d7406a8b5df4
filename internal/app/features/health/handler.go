package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/coverhub/internal/app/system/respond"
	"github.com/dalemusser/coverhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for the root health/banner endpoint.
type Handler struct {
	Client  *mongo.Client
	Version string
	Log     *zap.Logger
}

func NewHandler(client *mongo.Client, version string, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Version: version, Log: logger}
}

// routeTable is the static API directory served on the root route.
var routeTable = map[string]map[string]string{
	"health": {
		"GET /": "Health check endpoint",
	},
	"users": {
		"GET /api/users":  "Get all users",
		"POST /api/users": "Create a new user",
	},
	"auth": {
		"POST /api/auth/register": "Register a new user",
		"POST /api/auth/login":    "Login user",
		"GET /api/auth/profile":   "Get user profile (protected)",
	},
	"policies": {
		"GET /api/policies":                                    "Get all policies with pagination (requires auth)",
		"POST /api/policies":                                   "Create a new policy (requires auth)",
		"GET /api/policies/search":                             "Search policies (requires auth)",
		"GET /api/policies/stats":                              "Get policy statistics (requires auth)",
		"GET /api/policies/user":                               "Get policies by authenticated user (requires auth)",
		"GET /api/policies/{id}":                               "Get policy by ID (requires auth)",
		"GET /api/policies/master-policy/{masterPolicyNumber}": "Get policy by master policy number (requires auth)",
		"GET /api/policies/certificate/{certificateNumber}":    "Get policy by certificate number (requires auth)",
		"PUT /api/policies/{id}":                               "Update policy by ID (requires auth)",
		"DELETE /api/policies/{id}":                            "Delete policy by ID (requires auth)",
	},
	"pdf": {
		"POST /api/pdf/extract-images":                  "Upload PDF and extract images as base64",
		"POST /api/pdf/extract-images-files":            "Upload PDF and extract images as files (returns URLs)",
		"GET /api/pdf/images/{extractionID}/{filename}": "Serve extracted image files",
	},
}

// Serve handles GET /. It reports the route directory and whether the
// database answers a ping.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health check: mongo ping failed", zap.Error(err))
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	respond.JSON(w, code, map[string]any{
		"message":   "API is running",
		"version":   h.Version,
		"routes":    routeTable,
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
