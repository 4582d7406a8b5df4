// Package policies implements the policy CRUD, search, and stats endpoints.
// Every route here sits behind the auth middleware; the authenticated user
// ID scopes list and search, and stamps ownership on create.
package policies

import (
	"context"
	"errors"
	"io"
	"net/http"

	policystore "github.com/dalemusser/coverhub/internal/app/store/policies"
	"github.com/dalemusser/coverhub/internal/app/system/auth"
	"github.com/dalemusser/coverhub/internal/app/system/limits"
	"github.com/dalemusser/coverhub/internal/app/system/paging"
	"github.com/dalemusser/coverhub/internal/app/system/policycheck"
	"github.com/dalemusser/coverhub/internal/app/system/respond"
	"github.com/dalemusser/coverhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Policies *policystore.Store
	Log      *zap.Logger
}

func NewHandler(policies *policystore.Store, logger *zap.Logger) *Handler {
	return &Handler{Policies: policies, Log: logger}
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.CurrentUserID(r)
	if !ok || userID == "" {
		respond.Fail(w, http.StatusUnauthorized, "User ID not found in token")
		return "", false
	}
	return userID, true
}

// writeConflict emits the duplicate envelope: field and duplicateValue are
// included only when the conflict is pinned to one field.
func writeConflict(w http.ResponseWriter, conflict *policystore.ConflictError) {
	body := map[string]any{
		"success": false,
		"message": conflict.Message,
	}
	if conflict.Field != "" {
		body["field"] = conflict.Field
	}
	if conflict.Value != "" {
		body["duplicateValue"] = conflict.Value
	}
	respond.JSON(w, http.StatusBadRequest, body)
}

// Create handles POST /api/policies.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, limits.MaxPolicyBodySize))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	policy, err := policycheck.ValidateCreate(raw)
	if err != nil {
		var verr *policycheck.ValidationError
		if errors.As(err, &verr) {
			respond.Fail(w, http.StatusBadRequest, verr.Message)
			return
		}
		respond.Fail(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Policies.Create(ctx, userID, policy)
	if err != nil {
		var conflict *policystore.ConflictError
		if errors.As(err, &conflict) {
			writeConflict(w, conflict)
			return
		}
		h.Log.Error("policy create failed", zap.Error(err))
		respond.FailWithError(w, http.StatusInternalServerError, "Failed to create policy", err)
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Policy created successfully",
		"data":    created,
	})
}

// List handles GET /api/policies with optional field filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	filter := policystore.ListFilter{
		MasterPolicyNumber: query.Get(r, "master_policy_number"),
		CertificateNumber:  query.Get(r, "certificate_number"),
		ProposerEmail:      query.Get(r, "proposer_email"),
		ProposerMobile:     query.Get(r, "proposer_mobile"),
	}
	h.listPage(w, r, userID, filter, "Failed to fetch policies")
}

// ByUser handles GET /api/policies/user: the authenticated user's
// policies with no extra filters.
func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.listPage(w, r, userID, policystore.ListFilter{}, "Failed to fetch policies for user")
}

func (h *Handler) listPage(w http.ResponseWriter, r *http.Request, userID string, filter policystore.ListFilter, failMsg string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pg := paging.Parse(r)
	policies, total, err := h.Policies.List(ctx, userID, filter, pg)
	if err != nil {
		h.Log.Error("policy list failed", zap.Error(err))
		respond.FailWithError(w, http.StatusInternalServerError, failMsg, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       policies,
		"pagination": paging.NewMeta(pg, total),
	})
}

// Search handles GET /api/policies/search?q=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	q := query.Get(r, "q")
	if q == "" {
		respond.Fail(w, http.StatusBadRequest, "Search query is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pg := paging.Parse(r)
	policies, total, err := h.Policies.Search(ctx, userID, q, pg)
	if err != nil {
		h.Log.Error("policy search failed", zap.Error(err))
		respond.FailWithError(w, http.StatusInternalServerError, "Failed to search policies", err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       policies,
		"pagination": paging.NewMeta(pg, total),
	})
}

// Stats handles GET /api/policies/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	stats, err := h.Policies.Stats(ctx)
	if err != nil {
		h.Log.Error("policy stats failed", zap.Error(err))
		respond.FailWithError(w, http.StatusInternalServerError, "Failed to fetch policy statistics", err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
	})
}

// GetByID handles GET /api/policies/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Fail(w, http.StatusNotFound, "Policy not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	policy, err := h.Policies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, policystore.ErrNotFound) {
			respond.Fail(w, http.StatusNotFound, "Policy not found")
			return
		}
		h.Log.Error("policy fetch failed", zap.Error(err))
		respond.FailWithError(w, http.StatusInternalServerError, "Failed to fetch policy", err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "data": policy})
}

// GetByMasterPolicyNumber handles GET /api/policies/master-policy/{masterPolicyNumber}.
func (h *Handler) GetByMasterPolicyNumber(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	policy, err := h.Policies.GetByMasterPolicyNumber(ctx, chi.URLParam(r, "masterPolicyNumber"))
	if err != nil {
		if errors.Is(err, policystore.ErrNotFound) {
			respond.Fail(w, http.StatusNotFound, "Policy not found")
			return
		}
		h.Log.Error("policy fetch failed", zap.Error(err))
		respond.FailWithError(w, http.StatusInternalServerError, "Failed to fetch policy", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "data": policy})
}

// GetByCertificateNumber handles GET /api/policies/certificate/{certificateNumber}.
func (h *Handler) GetByCertificateNumber(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	policy, err := h.Policies.GetByCertificateNumber(ctx, chi.URLParam(r, "certificateNumber"))
	if err != nil {
		if errors.Is(err, policystore.ErrNotFound) {
			respond.Fail(w, http.StatusNotFound, "Policy not found")
			return
		}
		h.Log.Error("policy fetch failed", zap.Error(err))
		respond.FailWithError(w, http.StatusInternalServerError, "Failed to fetch policy", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "data": policy})
}

// Update handles PUT /api/policies/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Fail(w, http.StatusNotFound, "Policy not found")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, limits.MaxPolicyBodySize))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	upd, err := policycheck.ValidateUpdate(raw)
	if err != nil {
		var verr *policycheck.ValidationError
		if errors.As(err, &verr) {
			respond.Fail(w, http.StatusBadRequest, verr.Message)
			return
		}
		respond.Fail(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	updated, err := h.Policies.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, policystore.ErrNotFound) {
			respond.Fail(w, http.StatusNotFound, "Policy not found")
			return
		}
		var conflict *policystore.ConflictError
		if errors.As(err, &conflict) {
			writeConflict(w, conflict)
			return
		}
		h.Log.Error("policy update failed", zap.Error(err))
		respond.FailWithError(w, http.StatusInternalServerError, "Failed to update policy", err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Policy updated successfully",
		"data":    updated,
	})
}

// Delete handles DELETE /api/policies/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Fail(w, http.StatusNotFound, "Policy not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Policies.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, policystore.ErrNotFound) {
			respond.Fail(w, http.StatusNotFound, "Policy not found")
			return
		}
		h.Log.Error("policy delete failed", zap.Error(err))
		respond.FailWithError(w, http.StatusInternalServerError, "Failed to delete policy", err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Policy deleted successfully",
		"data":    deleted,
	})
}
