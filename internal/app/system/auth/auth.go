// Package auth verifies bearer credentials and resolves them to a user.
//
// The same Authenticator serves two entry points: the socket handshake,
// where the token arrives as connection-level auth data, and the REST
// surface, where it arrives in the Authorization header.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrMissingToken = errors.New("auth: missing token")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrTokenExpired = errors.New("auth: token expired")
	ErrUserNotFound = errors.New("auth: user not found")
)

// minSecretLen is the shortest HMAC secret accepted without a warning.
const minSecretLen = 32

// UserFetcher loads the current public identity for a user id. It returns
// nil when the user does not exist, is disabled, or cannot be loaded.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *models.PublicUser
}

// Identity is what a successful authentication attaches to a connection
// or request.
type Identity struct {
	UserID string
	User   models.PublicUser
}

// Claims is the token payload. UserID is preferred; Subject is accepted
// for tokens minted by issuers that only set "sub".
type Claims struct {
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) userID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Authenticator verifies HS256 tokens and resolves the user they name.
type Authenticator struct {
	secret  []byte
	issuer  string
	fetcher UserFetcher
	log     *zap.Logger
	now     func() time.Time
}

// NewAuthenticator builds an Authenticator. issuer may be empty, in which
// case the "iss" claim is not checked.
func NewAuthenticator(secret, issuer string, fetcher UserFetcher, logger *zap.Logger) (*Authenticator, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty; provide ≥%d random chars", minSecretLen)
	}
	if len(secret) < minSecretLen {
		logger.Warn("jwt secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	return &Authenticator{
		secret:  []byte(secret),
		issuer:  issuer,
		fetcher: fetcher,
		log:     logger,
		now:     time.Now,
	}, nil
}

// SetClock overrides the time source used for expiry checks.
func (a *Authenticator) SetClock(now func() time.Time) {
	a.now = now
}

// Verify checks signature and expiry and returns the user id claim.
func (a *Authenticator) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	uid := claims.userID()
	if uid == "" {
		return "", fmt.Errorf("%w: no user id claim", ErrInvalidToken)
	}
	return uid, nil
}

// Authenticate verifies the token and loads the user it names. Failure is
// terminal for the attempt; callers do not retry.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	uid, err := a.Verify(token)
	if err != nil {
		return nil, err
	}
	u := a.fetcher.FetchUser(ctx, uid)
	if u == nil {
		return nil, ErrUserNotFound
	}
	return &Identity{UserID: uid, User: *u}, nil
}

// Issue mints a token for userID valid for ttl. Token issuance belongs to
// the login service; this exists for tooling and tests.
func (a *Authenticator) Issue(userID string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

/*─────────────────────────────────────────────────────────────────────────────*
| HTTP helpers                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the identity attached by RequireBearer.
func CurrentUser(r *http.Request) (*Identity, bool) {
	id, ok := r.Context().Value(currentUserKey).(*Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, currentUserKey, id)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// RequireBearer rejects requests without a valid bearer token with 401
// and otherwise injects the Identity into the request context.
func (a *Authenticator) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Authenticate(r.Context(), BearerToken(r))
		if err != nil {
			a.log.Debug("bearer auth rejected",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
