package bootstrap

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "collabhub_test",
		MongoConnectTimeout: 5 * time.Second,
		JWTSecret:           "0123456789abcdef0123456789abcdef",
		WSHandshakeTimeout:  time.Second,
		WSSendBuffer:        16,
		WSMaxMessageBytes:   1 << 16,
		WSPingInterval:      time.Second,
		NotifyMode:          "personal",
		HandshakeRateLimit:  10,
		HandshakeRateWindow: time.Minute,
		AuditLogAuth:        "all",
		AuditLogSharing:     "db",
	}
}

func TestValidateConfig(t *testing.T) {
	dev := &config.CoreConfig{Env: "dev"}
	prod := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", dev, func(*AppConfig) {}, ""},
		{"broadcast mode", dev, func(c *AppConfig) { c.NotifyMode = "broadcast" }, ""},
		{"empty mode means personal", dev, func(c *AppConfig) { c.NotifyMode = "" }, ""},
		{"rate limit disabled", dev, func(c *AppConfig) { c.HandshakeRateLimit = 0; c.HandshakeRateWindow = 0 }, ""},
		{"bad mongo uri", dev, func(c *AppConfig) { c.MongoURI = "postgres://nope" }, "MongoDB URI"},
		{"missing secret", dev, func(c *AppConfig) { c.JWTSecret = "  " }, "jwt_secret"},
		{"short secret in dev", dev, func(c *AppConfig) { c.JWTSecret = "short" }, ""},
		{"short secret in prod", prod, func(c *AppConfig) { c.JWTSecret = "short" }, "at least 32"},
		{"unknown notify mode", dev, func(c *AppConfig) { c.NotifyMode = "shout" }, "notify mode"},
		{"zero send buffer", dev, func(c *AppConfig) { c.WSSendBuffer = 0 }, "ws_send_buffer"},
		{"negative rate limit", dev, func(c *AppConfig) { c.HandshakeRateLimit = -1 }, "handshake_rate_limit"},
		{"bad audit mode", dev, func(c *AppConfig) { c.AuditLogSharing = "sometimes" }, "audit_log_sharing"},
		{"rate limit without window", dev, func(c *AppConfig) { c.HandshakeRateWindow = 0 }, "handshake_rate_window"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := ValidateConfig(tc.core, cfg, testLogger())
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"*", []string{"*"}},
		{"https://a.example.com/, https://b.example.com ,,", []string{"https://a.example.com", "https://b.example.com"}},
	}
	for _, tc := range tests {
		if got := parseOrigins(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseOrigins(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
