package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/exp/slog"
)

// Identity is the authenticated caller resolved from the bearer token. Tenant
// and faculty always come from here, never from request payloads.
type Identity struct {
	TenantID  string
	FacultyID string
}

type Claims struct {
	jwt.RegisteredClaims
	TenantID  string `json:"tenant_id"`
	FacultyID string `json:"faculty_id"`
}

type Auth struct {
	secret []byte
	log    *slog.Logger
}

func New(secret string, log *slog.Logger) *Auth {
	return &Auth{
		secret: []byte(secret),
		log:    log.With("component", "auth_middleware"),
	}
}

type contextKey string

const identityKey contextKey = "identity"

// Middleware validates the bearer token and injects the caller identity into
// the request context.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header("Authorization")
		if len(header) < 7 || header[:7] != "Bearer " {
			a.log.Debug("missing bearer token")
			a.unauthorized(ctx)
			return
		}

		identity, err := a.verify(header[7:])
		if err != nil {
			a.log.Debug("token rejected", "error", err)
			a.unauthorized(ctx)
			return
		}

		next(huma.WithContext(ctx, WithIdentity(ctx.Context(), identity)))
	}
}

func (a *Auth) verify(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !parsed.Valid {
		return Identity{}, errors.New("invalid token")
	}
	if claims.TenantID == "" || claims.FacultyID == "" {
		return Identity{}, errors.New("token missing tenant or faculty claim")
	}
	return Identity{TenantID: claims.TenantID, FacultyID: claims.FacultyID}, nil
}

func (a *Auth) unauthorized(ctx huma.Context) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")
	if err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": "Unauthorized",
	}); err != nil {
		a.log.Error("write unauthorized response", "error", err)
	}
}

// WithIdentity attaches a caller identity to the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity extracts the caller identity set by the middleware.
func GetIdentity(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
