package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BadarHossain1/harris-vale-storefront/pkg/logger"
)

type contextKey struct{}

// GuestCookieName is the cookie under which the guest token is persisted.
// It is the server-side equivalent of the client-storage key the web UI uses.
const GuestCookieName = "hv_guest_id"

// guestCookieTTL keeps the guest identity stable across visits.
const guestCookieTTL = 365 * 24 * time.Hour

// FromContext returns the actor resolved by the Resolver middleware.
// The boolean is false when no resolver ran on the request path.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

// NewContext returns a context carrying the given actor. Exposed for tests.
func NewContext(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// Resolver returns middleware that resolves the actor for every request.
//
// A bearer token with valid HMAC signature yields an authenticated actor
// keyed by the email claim. Anything else falls back to the guest cookie,
// minting and setting a fresh guest token when the cookie is absent or
// malformed. Switching between guest and authenticated identities does not
// merge carts; the request is simply keyed by the new identity.
func Resolver(jwtSecret string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := actorFromBearer(r, jwtSecret, log)
			if !ok {
				actor = actorFromGuestCookie(w, r)
			}

			ctx := NewContext(r.Context(), actor)
			ctx = logger.WithActorID(ctx, actor.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// actorFromBearer parses an Authorization bearer token and extracts the
// identity claims. Token validation failures are not fatal: the request
// degrades to a guest identity. Issuing and refreshing tokens is the
// account backend's job, not ours.
func actorFromBearer(r *http.Request, secret string, log *slog.Logger) (Actor, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Actor{}, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return Actor{}, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		log.Debug("invalid bearer token, falling back to guest identity",
			slog.String("path", r.URL.Path),
		)
		return Actor{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, false
	}

	email, _ := claims["email"].(string)
	if email == "" {
		// Fallback: some issuers put the email in the subject claim.
		email, _ = claims["sub"].(string)
	}
	if email == "" {
		return Actor{}, false
	}

	name, _ := claims["name"].(string)
	return Authenticated(email, name), true
}

// actorFromGuestCookie reads the guest token cookie, minting and setting a
// new one when it is missing or malformed. The token is created once and
// reused until explicitly cleared, so the guest's cart survives reloads.
func actorFromGuestCookie(w http.ResponseWriter, r *http.Request) Actor {
	if c, err := r.Cookie(GuestCookieName); err == nil && IsGuestID(c.Value) {
		return Guest(c.Value)
	}

	id := NewGuestID(time.Now())
	http.SetCookie(w, &http.Cookie{
		Name:     GuestCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(guestCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return Guest(id)
}
