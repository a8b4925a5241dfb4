// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	"github.com/dalemusser/collabhub/internal/app/collab"
	auditfeature "github.com/dalemusser/collabhub/internal/app/features/auditlog"
	healthfeature "github.com/dalemusser/collabhub/internal/app/features/health"
	realtimefeature "github.com/dalemusser/collabhub/internal/app/features/realtime"
	sharesfeature "github.com/dalemusser/collabhub/internal/app/features/shares"
	"github.com/dalemusser/collabhub/internal/app/policy/scopepolicy"
	"github.com/dalemusser/collabhub/internal/app/store/audit"
	notestore "github.com/dalemusser/collabhub/internal/app/store/notes"
	sharestore "github.com/dalemusser/collabhub/internal/app/store/shares"
	taskstore "github.com/dalemusser/collabhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/collabhub/internal/app/store/users"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/ratelimit"
	"github.com/dalemusser/collabhub/internal/app/system/requestlog"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It builds the stores, the access gate
// and the single collaboration Service every socket shares, then mounts:
//
//	/health     liveness probe with hub counters
//	/ws         socket upgrade (handshake rate limited)
//	/api        sharing endpoints (bearer auth)
//	/api/audit  sharing history per note or task (bearer auth)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if deps.Background == nil {
		return nil, errors.New("bootstrap: DBDeps.Background is nil")
	}
	db := deps.MongoDatabase

	users := userstore.NewFetcher(db)
	tasks := taskstore.New(db)
	shares := sharestore.New(db)
	gate := scopepolicy.NewGate(notestore.New(db), tasks, shares)

	authn, err := auth.NewAuthenticator(appCfg.JWTSecret, appCfg.JWTIssuer, users, logger)
	if err != nil {
		logger.Error("authenticator init failed", zap.Error(err))
		return nil, err
	}

	mode, err := collab.ParseNotifyMode(appCfg.NotifyMode)
	if err != nil {
		return nil, err
	}
	svc := collab.NewService(gate, users, tasks, mode, logger)
	auditStore := audit.New(db)
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Sharing: appCfg.AuditLogSharing,
	})

	var limiter *ratelimit.Limiter
	if appCfg.HandshakeRateLimit > 0 {
		limiter = ratelimit.New(appCfg.HandshakeRateLimit, appCfg.HandshakeRateWindow)
		deps.Background.addLimiter(limiter)
	}

	r := chi.NewRouter()
	r.Use(requestlog.Middleware(logger))

	healthHandler := healthfeature.NewHandler(deps.MongoClient, svc.Hub, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	wsHandler := realtimefeature.NewHandler(svc, authn, realtimefeature.Config{
		AllowedOrigins:   appCfg.WSAllowedOrigins,
		HandshakeTimeout: appCfg.WSHandshakeTimeout,
		SendBuffer:       appCfg.WSSendBuffer,
		MaxMessageBytes:  appCfg.WSMaxMessageBytes,
		PingInterval:     appCfg.WSPingInterval,
	}, limiter, logger)
	wsHandler.Audit = auditLog
	r.Mount("/ws", realtimefeature.Routes(wsHandler))

	sharesHandler := sharesfeature.NewHandler(shares, gate, users, svc, logger)
	sharesHandler.Audit = auditLog
	r.Mount("/api", sharesfeature.Routes(sharesHandler, authn.RequireBearer))

	historyHandler := auditfeature.NewHandler(auditStore, gate, logger)
	r.Mount("/api/audit", auditfeature.Routes(historyHandler, authn.RequireBearer))

	logger.Info("collaboration service ready",
		zap.String("notify_mode", string(mode)),
		zap.Int("handshake_rate_limit", appCfg.HandshakeRateLimit),
		zap.Strings("ws_allowed_origins", appCfg.WSAllowedOrigins))

	return r, nil
}
