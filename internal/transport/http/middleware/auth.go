package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gatherly/event-service/internal/transport/http/response"
)

type ctxKey string

const ctxUserID ctxKey = "user_id"

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the bearer token issued by the auth service and
// injects the caller's user id. Event-level role checks happen per handler
// against the memberships table, not here; the token carries identity only.
type AuthMiddleware struct {
	secret []byte
	issuer string
}

func NewAuth(secret, issuer string) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		issuer: issuer,
	}
}

func (a *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, err := a.parse(r)
		if err != nil {
			response.Fail(
				w,
				http.StatusUnauthorized,
				"unauthorized",
				"unauthorized",
				map[string]string{"reason": err.Error()},
				response.RequestIDFromRequest(r),
			)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches the user id when a valid token is present and lets the
// request through either way. Read paths use it to widen what a member sees
// without closing the route to anonymous callers.
func (a *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, err := a.parse(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxUserID, uid))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *AuthMiddleware) parse(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil {
		return "", err
	}
	if !tok.Valid {
		return "", errors.New("invalid token")
	}

	if a.issuer != "" && claims.Issuer != a.issuer {
		return "", errors.New("invalid issuer")
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return "", errors.New("missing uid")
	}
	return claims.UserID, nil
}

// WithUser returns a context carrying uid the way Require does. In-process
// callers and handler tests use it to skip token parsing.
func WithUser(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxUserID, uid)
}

func UserID(r *http.Request) string {
	if v, ok := r.Context().Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}
