// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework-level settings (ports, TLS, logging); everything here is
// specific to the collaboration service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI            string        // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase       string        // Database name within MongoDB
	MongoMaxPoolSize    uint64        // Upper bound on pooled connections
	MongoConnectTimeout time.Duration // Deadline for the initial connect and ping

	// Handshake credential
	JWTSecret string // HMAC secret shared with the login service
	JWTIssuer string // Expected "iss" claim; blank disables the check

	// Socket transport
	WSAllowedOrigins   []string      // Browser origins allowed to upgrade; "*" allows any
	WSHandshakeTimeout time.Duration // Time allowed for the upgrade and first-frame auth
	WSSendBuffer       int           // Outbound frames queued per connection before dropping
	WSMaxMessageBytes  int64         // Largest inbound frame accepted
	WSPingInterval     time.Duration // Keepalive ping period; reads time out after twice this

	// Notification addressing: "personal" or "broadcast"
	NotifyMode string

	// Handshake rate limiting per client IP (0 disables)
	HandshakeRateLimit  int
	HandshakeRateWindow time.Duration

	// Audit destinations per category: "all", "db", "log" or "off"
	AuditLogAuth    string
	AuditLogSharing string

	// Store deadlines applied by handlers (zero keeps the default)
	LookupTimeout time.Duration
	WriteTimeout  time.Duration
	BatchTimeout  time.Duration
}
