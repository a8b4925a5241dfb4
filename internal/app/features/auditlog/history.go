// internal/app/features/auditlog/history.go
package auditlog

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/paging"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ServeHistory handles GET /api/audit/{notes|tasks}/{id}: the share and
// revoke events recorded for one item, newest first.
//
// Query parameters: event (share_granted or share_revoked), since and
// until (YYYY-MM-DD, inclusive), start (1-based) and limit.
func (h *Handler) ServeHistory(scope models.ScopeType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := auth.CurrentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		scopeID := chi.URLParam(r, "id")
		oid, err := primitive.ObjectIDFromHex(scopeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}

		q := r.URL.Query()
		eventType := strings.TrimSpace(q.Get("event"))
		if !validEventType(eventType) {
			writeError(w, http.StatusBadRequest, "unknown event type")
			return
		}

		filter := audit.QueryFilter{
			ScopeType: scope,
			ScopeID:   &oid,
			Category:  audit.CategorySharing,
			EventType: eventType,
		}
		if s := strings.TrimSpace(q.Get("since")); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
				return
			}
			filter.StartTime = &t
		}
		if s := strings.TrimSpace(q.Get("until")); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "until must be YYYY-MM-DD")
				return
			}
			// End of day
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			filter.EndTime = &endOfDay
		}

		start := paging.ParseStart(r)
		limit := paging.ParseLimit(r)
		filter.Offset = paging.Skip(start)
		filter.Limit = int64(limit)

		lctx, cancel := context.WithTimeout(r.Context(), timeouts.Lookup())
		canEdit, err := h.Gate.CanEdit(lctx, scope, me.UserID, scopeID)
		cancel()
		if err != nil {
			h.Log.Error("history authorization failed",
				zap.String("scope", string(scope)),
				zap.String("scope_id", scopeID),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "authorization failed")
			return
		}
		if !canEdit {
			writeError(w, http.StatusForbidden, "edit permission required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
		defer cancel()

		events, err := h.Store.Query(ctx, filter)
		if err != nil {
			h.Log.Error("failed to query audit events", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		total, err := h.Store.CountByFilter(ctx, filter)
		if err != nil {
			h.Log.Error("failed to count audit events", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}

		items := make([]historyItem, 0, len(events))
		for _, e := range events {
			items = append(items, toItem(e))
		}

		writeJSON(w, http.StatusOK, historyResponse{
			Events: items,
			Total:  total,
			Range:  paging.ComputeRange(start, len(items), limit, total),
		})
	}
}
