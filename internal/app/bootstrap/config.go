// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/collabhub/internal/app/collab"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minProdSecretLen is the shortest JWT secret accepted in production.
const minProdSecretLen = 32

// appConfigKeys defines the configuration keys for collabhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: COLLABHUB_MONGO_URI, COLLABHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "collabhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_connect_timeout", Default: "10s", Desc: "Deadline for the initial MongoDB connect and ping"},

	// Handshake credential
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HMAC secret for handshake tokens (must be strong in production)"},
	{Name: "jwt_issuer", Default: "", Desc: "Expected token issuer (blank disables the check)"},

	// Socket transport
	{Name: "ws_allowed_origins", Default: "", Desc: "Comma-separated browser origins allowed to connect; '*' allows any, blank allows same host"},
	{Name: "ws_handshake_timeout", Default: "10s", Desc: "Time allowed for upgrade and first-frame authentication"},
	{Name: "ws_send_buffer", Default: 256, Desc: "Outbound frames queued per connection before frames are dropped"},
	{Name: "ws_max_message_bytes", Default: 1048576, Desc: "Largest inbound frame in bytes"},
	{Name: "ws_ping_interval", Default: "25s", Desc: "Keepalive ping period"},

	// Notifications
	{Name: "notify_mode", Default: "personal", Desc: "Share/revoke addressing: 'personal' or 'broadcast'"},

	// Handshake rate limiting
	{Name: "handshake_rate_limit", Default: 30, Desc: "Socket handshakes allowed per client IP per window (0 disables)"},
	{Name: "handshake_rate_window", Default: "1m", Desc: "Window for handshake rate limiting"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Rejected handshake logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_sharing", Default: "all", Desc: "Share/revoke logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Store deadlines
	{Name: "timeout_lookup", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_write", Default: "10s", Desc: "Deadline for single-document writes"},
	{Name: "timeout_batch", Default: "30s", Desc: "Deadline for multi-document operations"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// COLLABHUB_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COLLABHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:            appValues.String("mongo_uri"),
		MongoDatabase:       appValues.String("mongo_database"),
		MongoMaxPoolSize:    uint64(appValues.Int("mongo_max_pool_size")),
		MongoConnectTimeout: appValues.Duration("mongo_connect_timeout", 10*time.Second),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),

		WSAllowedOrigins:   parseOrigins(appValues.String("ws_allowed_origins")),
		WSHandshakeTimeout: appValues.Duration("ws_handshake_timeout", 10*time.Second),
		WSSendBuffer:       appValues.Int("ws_send_buffer"),
		WSMaxMessageBytes:  int64(appValues.Int("ws_max_message_bytes")),
		WSPingInterval:     appValues.Duration("ws_ping_interval", 25*time.Second),

		NotifyMode: appValues.String("notify_mode"),

		HandshakeRateLimit:  appValues.Int("handshake_rate_limit"),
		HandshakeRateWindow: appValues.Duration("handshake_rate_window", time.Minute),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogSharing: appValues.String("audit_log_sharing"),

		LookupTimeout: appValues.Duration("timeout_lookup", 5*time.Second),
		WriteTimeout:  appValues.Duration("timeout_write", 10*time.Second),
		BatchTimeout:  appValues.Duration("timeout_batch", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// parseOrigins splits a comma-separated origin list, dropping blanks.
func parseOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, strings.TrimRight(o, "/"))
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The Mongo URI and notify mode are checked before connecting; production
// additionally requires a JWT secret of at least minProdSecretLen bytes.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if strings.TrimSpace(appCfg.JWTSecret) == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.JWTSecret) < minProdSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d bytes in production", minProdSecretLen)
	}

	if _, err := collab.ParseNotifyMode(appCfg.NotifyMode); err != nil {
		return err
	}

	if err := auditlog.ValidateMode(appCfg.AuditLogAuth); err != nil {
		return fmt.Errorf("audit_log_auth: %w", err)
	}
	if err := auditlog.ValidateMode(appCfg.AuditLogSharing); err != nil {
		return fmt.Errorf("audit_log_sharing: %w", err)
	}

	if appCfg.WSSendBuffer < 1 {
		return fmt.Errorf("ws_send_buffer must be positive, got %d", appCfg.WSSendBuffer)
	}
	if appCfg.HandshakeRateLimit < 0 {
		return fmt.Errorf("handshake_rate_limit must not be negative")
	}
	if appCfg.HandshakeRateLimit > 0 && appCfg.HandshakeRateWindow <= 0 {
		return fmt.Errorf("handshake_rate_window must be positive when rate limiting is enabled")
	}

	return nil
}
