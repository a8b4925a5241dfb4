package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/collabhub/internal/app/collab"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// StatsSource reports live hub counters.
type StatsSource interface {
	Stats() collab.Stats
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Hub    StatsSource
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. hub may be nil.
func NewHandler(client *mongo.Client, hub StatsSource, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Hub:    hub,
		Log:    logger,
	}
}

type healthResponse struct {
	Status   string        `json:"status"`
	Database string        `json:"database"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
	Realtime *collab.Stats `json:"realtime,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected",
//	  "realtime":{"connections":3,"online_users":2,"note_rooms":1,"task_rooms":0} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}
	if h.Hub != nil {
		s := h.Hub.Stats()
		resp.Realtime = &s
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
