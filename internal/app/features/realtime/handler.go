package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/collabhub/internal/app/collab"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/limits"
	"github.com/dalemusser/collabhub/internal/app/system/ratelimit"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var errNoCredential = errors.New("first frame must be an authenticate event")

// Authenticator verifies the credential a client presents at handshake.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// Config tunes the socket transport.
type Config struct {
	AllowedOrigins   []string
	HandshakeTimeout time.Duration
	SendBuffer       int
	MaxMessageBytes  int64
	PingInterval     time.Duration
}

// Handler upgrades HTTP requests to collaboration sockets. Audit may be
// nil.
type Handler struct {
	Svc     *collab.Service
	Auth    Authenticator
	Cfg     Config
	Limiter *ratelimit.Limiter
	Audit   *auditlog.Logger
	Log     *zap.Logger

	upgrader websocket.Upgrader
}

// NewHandler constructs a realtime Handler. limiter may be nil.
func NewHandler(svc *collab.Service, authn Authenticator, cfg Config, limiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 25 * time.Second
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = limits.DefaultMaxMessageBytes
	}
	return &Handler{
		Svc:     svc,
		Auth:    authn,
		Cfg:     cfg,
		Limiter: limiter,
		Log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			HandshakeTimeout: cfg.HandshakeTimeout,
			CheckOrigin:      checkOrigin(cfg.AllowedOrigins),
		},
	}
}

// checkOrigin allows requests without an Origin header (non-browser
// clients), any origin when the list holds "*", listed origins, and
// otherwise only the request's own host.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		if len(allowed) > 0 {
			return false
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// ServeWS handles GET /ws. Nothing reaches the collaboration session
// until the handshake credential has been verified.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.Cfg.MaxMessageBytes)

	ctx := r.Context()
	id, err := h.handshake(ctx, r, conn)
	if err != nil {
		h.Log.Info("handshake rejected",
			zap.String("ip", ratelimit.ClientIP(r)),
			zap.Error(err))
		reason := h.rejectAuth(conn, err)
		h.Audit.HandshakeRejected(ctx, r, reason)
		return
	}

	sess := h.Svc.NewSession(collab.NewClient(id.User, h.Cfg.SendBuffer))
	sess.Open()

	done := make(chan struct{})
	go h.writePump(conn, sess.Client(), done)
	h.readPump(ctx, conn, sess)
	sess.Close()
	<-done
}

// handshake takes the token from the query string, or else from an
// authenticate frame that must arrive within the handshake timeout.
func (h *Handler) handshake(ctx context.Context, r *http.Request, conn *websocket.Conn) (*auth.Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		_ = conn.SetReadDeadline(time.Now().Add(h.Cfg.HandshakeTimeout))
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt != websocket.TextMessage {
			return nil, errNoCredential
		}
		var env collab.Envelope
		if err := json.Unmarshal(msg, &env); err != nil || env.Event != collab.EvAuthenticate {
			return nil, errNoCredential
		}
		var p struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, errNoCredential
		}
		token = p.Token
		_ = conn.SetReadDeadline(time.Time{})
	}

	actx, cancel := context.WithTimeout(ctx, timeouts.Lookup())
	defer cancel()
	return h.Auth.Authenticate(actx, token)
}

// rejectAuth sends the terminal auth-error frame and a policy close, and
// returns the message sent.
func (h *Handler) rejectAuth(conn *websocket.Conn, cause error) string {
	msg := "authentication failed"
	switch {
	case errors.Is(cause, auth.ErrMissingToken), errors.Is(cause, errNoCredential):
		msg = "authentication required"
	case errors.Is(cause, auth.ErrTokenExpired):
		msg = "token expired"
	}
	if b, err := collab.Encode(collab.OutAuthError, map[string]string{"message": msg}); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, msg),
		time.Now().Add(writeWait))
	return msg
}

func (h *Handler) pongWait() time.Duration {
	return 2 * h.Cfg.PingInterval
}

// readPump feeds frames to the session until the peer goes away or stops
// answering pings.
func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, sess *collab.Session) {
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	})

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.Log.Debug("websocket read ended",
					zap.String("conn_id", sess.Client().ID),
					zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		sess.Handle(ctx, msg)
	}
}

// writePump is the only writer once the session is open. It exits when
// the hub closes the client's queue or a write fails.
func (h *Handler) writePump(conn *websocket.Conn, c *collab.Client, done chan<- struct{}) {
	ticker := time.NewTicker(h.Cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-c.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.Log.Debug("websocket write failed", zap.String("conn_id", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
