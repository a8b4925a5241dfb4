// Package shares is the REST side of sharing: it commits grants and
// revocations to the store, then hands them to the collaboration hub for
// delivery to the affected user's live connections.
package shares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/collabhub/internal/app/collab"
	sharestore "github.com/dalemusser/collabhub/internal/app/store/shares"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/limits"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Users resolves a user id to an active identity, or nil.
type Users interface {
	FetchUser(ctx context.Context, userID string) *models.PublicUser
}

// Handler serves the sharing endpoints for one process. Audit may be
// nil.
type Handler struct {
	Shares *sharestore.Store
	Gate   collab.Gate
	Users  Users
	Svc    *collab.Service
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

// NewHandler constructs a shares Handler.
func NewHandler(shares *sharestore.Store, gate collab.Gate, users Users, svc *collab.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Shares: shares,
		Gate:   gate,
		Users:  users,
		Svc:    svc,
		Log:    logger,
	}
}

type grantRequest struct {
	UserID     string            `json:"userId"`
	Permission models.Permission `json:"permission"`
}

type grantResponse struct {
	Share     models.Share `json:"share"`
	Delivered int          `json:"delivered"`
}

type revokeResponse struct {
	Removed   bool `json:"removed"`
	Delivered int  `json:"delivered"`
}

type bulkPair struct {
	UserID  string `json:"userId"`
	ScopeID string `json:"scopeId"`
}

type bulkRequest struct {
	Revocations []bulkPair `json:"revocations"`
}

type bulkResponse struct {
	Count    int `json:"count"`
	Denied   int `json:"denied"`
	NotFound int `json:"notFound"`
	Failed   int `json:"failed"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// caller returns the authenticated identity. RequireBearer guarantees it
// on mounted routes; a missing identity is treated as unauthorized.
func caller(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	id, ok := auth.CurrentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return id, true
}

// authorizeEdit answers 403/500 itself and reports whether to continue.
func (h *Handler) authorizeEdit(ctx context.Context, w http.ResponseWriter, scope models.ScopeType, userID, scopeID string) bool {
	lctx, cancel := context.WithTimeout(ctx, timeouts.Lookup())
	defer cancel()
	ok, err := h.Gate.CanEdit(lctx, scope, userID, scopeID)
	if err != nil {
		h.Log.Error("share authorization failed",
			zap.String("scope", string(scope)),
			zap.String("scope_id", scopeID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "authorization failed")
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "edit permission required")
		return false
	}
	return true
}

// List handles GET /api/{notes|tasks}/{id}/shares. Any user with access
// may read the grant list.
func (h *Handler) List(scope models.ScopeType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		scopeID := chi.URLParam(r, "id")
		oid, err := primitive.ObjectIDFromHex(scopeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Lookup())
		defer cancel()
		allowed, err := h.Gate.CanAccess(ctx, scope, me.UserID, scopeID)
		if err != nil {
			h.Log.Error("share list authorization failed", zap.String("scope_id", scopeID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "authorization failed")
			return
		}
		if !allowed {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}

		list, err := h.Shares.ListForScope(ctx, scope, oid)
		if err != nil {
			h.Log.Error("share list failed", zap.String("scope_id", scopeID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load shares")
			return
		}
		if list == nil {
			list = []models.Share{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"shares": list})
	}
}

// Grant handles POST /api/{notes|tasks}/{id}/shares.
func (h *Handler) Grant(scope models.ScopeType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		scopeID := chi.URLParam(r, "id")

		var req grantRequest
		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxShareBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}
		req.UserID = strings.TrimSpace(req.UserID)
		if req.Permission == "" {
			req.Permission = models.PermissionView
		}

		scopeOID, err1 := primitive.ObjectIDFromHex(scopeID)
		targetOID, err2 := primitive.ObjectIDFromHex(req.UserID)
		byOID, err3 := primitive.ObjectIDFromHex(me.UserID)
		switch {
		case err1 != nil:
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		case err2 != nil:
			writeError(w, http.StatusBadRequest, "invalid userId")
			return
		case err3 != nil:
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		case req.UserID == me.UserID:
			writeError(w, http.StatusBadRequest, "cannot share with yourself")
			return
		case !req.Permission.IsValid():
			writeError(w, http.StatusBadRequest, "permission must be VIEW or EDIT")
			return
		}

		if !h.authorizeEdit(r.Context(), w, scope, me.UserID, scopeID) {
			return
		}

		lctx, lcancel := context.WithTimeout(r.Context(), timeouts.Lookup())
		target := h.Users.FetchUser(lctx, req.UserID)
		lcancel()
		if target == nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}

		wctx, wcancel := context.WithTimeout(r.Context(), timeouts.Write())
		defer wcancel()
		share, err := h.Shares.Grant(wctx, scope, scopeOID, targetOID, byOID, req.Permission)
		if err != nil {
			h.Log.Error("share grant failed",
				zap.String("scope", string(scope)),
				zap.String("scope_id", scopeID),
				zap.String("target_user_id", req.UserID),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to share")
			return
		}

		n := h.Svc.NotifyShared(models.Key(scope, scopeID), req.UserID, req.Permission, me.User)
		h.Log.Info("share granted",
			zap.String("scope", string(scope)),
			zap.String("scope_id", scopeID),
			zap.String("target_user_id", req.UserID),
			zap.String("permission", string(req.Permission)),
			zap.Int("delivered", n))
		h.Audit.ShareGranted(r.Context(), r, me.UserID, req.UserID, models.Key(scope, scopeID), req.Permission, n)
		writeJSON(w, http.StatusOK, grantResponse{Share: share, Delivered: n})
	}
}

// Revoke handles DELETE /api/{notes|tasks}/{id}/shares/{userId}.
func (h *Handler) Revoke(scope models.ScopeType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		scopeID := chi.URLParam(r, "id")
		targetID := chi.URLParam(r, "userId")

		scopeOID, err1 := primitive.ObjectIDFromHex(scopeID)
		targetOID, err2 := primitive.ObjectIDFromHex(targetID)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		if !h.authorizeEdit(r.Context(), w, scope, me.UserID, scopeID) {
			return
		}

		wctx, cancel := context.WithTimeout(r.Context(), timeouts.Write())
		defer cancel()
		removed, err := h.Shares.Revoke(wctx, scope, scopeOID, targetOID)
		if err != nil {
			h.Log.Error("share revoke failed",
				zap.String("scope_id", scopeID),
				zap.String("target_user_id", targetID),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to revoke")
			return
		}
		if !removed {
			writeError(w, http.StatusNotFound, "share not found")
			return
		}

		key := models.Key(scope, scopeID)
		n := h.Svc.NotifyRevoked(r.Context(), key, targetID, me.User)
		h.Audit.ShareRevoked(r.Context(), r, me.UserID, targetID, key, n)
		writeJSON(w, http.StatusOK, revokeResponse{Removed: true, Delivered: n})
	}
}

// RevokeBulk handles POST /api/{notes|tasks}/shares/revoke-bulk. Each pair
// is authorized and revoked independently; the response counts outcomes.
func (h *Handler) RevokeBulk(scope models.ScopeType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		var req bulkRequest
		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxBulkBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}
		if len(req.Revocations) == 0 {
			writeError(w, http.StatusBadRequest, "revocations required")
			return
		}
		if len(req.Revocations) > limits.MaxBulkRevocations {
			writeError(w, http.StatusBadRequest, "too many revocations")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
		defer cancel()

		var res bulkResponse
		editable := make(map[string]bool)
		for _, p := range req.Revocations {
			scopeOID, err1 := primitive.ObjectIDFromHex(p.ScopeID)
			targetOID, err2 := primitive.ObjectIDFromHex(p.UserID)
			if err1 != nil || err2 != nil {
				res.Failed++
				continue
			}

			can, seen := editable[p.ScopeID]
			if !seen {
				var err error
				can, err = h.Gate.CanEdit(ctx, scope, me.UserID, p.ScopeID)
				if err != nil {
					h.Log.Warn("bulk revoke authorization failed", zap.String("scope_id", p.ScopeID), zap.Error(err))
					res.Failed++
					continue
				}
				editable[p.ScopeID] = can
			}
			if !can {
				res.Denied++
				continue
			}

			removed, err := h.Shares.Revoke(ctx, scope, scopeOID, targetOID)
			switch {
			case err != nil:
				h.Log.Warn("bulk revoke failed",
					zap.String("scope_id", p.ScopeID),
					zap.String("target_user_id", p.UserID),
					zap.Error(err))
				res.Failed++
				continue
			case !removed:
				res.NotFound++
				continue
			}
			key := models.Key(scope, p.ScopeID)
			n := h.Svc.NotifyRevoked(ctx, key, p.UserID, me.User)
			h.Audit.ShareRevoked(ctx, r, me.UserID, p.UserID, key, n)
			res.Count++
		}

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			h.Log.Warn("bulk revoke ran out of time", zap.Int("count", res.Count))
		}
		h.Audit.BulkRevoke(r.Context(), r, me.UserID, scope, res.Count, res.Denied, res.NotFound, res.Failed)
		writeJSON(w, http.StatusOK, res)
	}
}
