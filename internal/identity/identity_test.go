package identity

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewGuestIDFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id := NewGuestID(now)

	require.True(t, IsGuestID(id), "minted ID must validate: %s", id)

	parts := strings.SplitN(id, "_", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "guest", parts[0])

	millis, err := strconv.ParseInt(parts[1], 10, 64)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), millis)

	assert.Len(t, parts[2], 9)
}

func TestNewGuestIDUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewGuestID(now)
		assert.False(t, seen[id], "duplicate guest ID: %s", id)
		seen[id] = true
	}
}

func TestIsGuestID(t *testing.T) {
	assert.True(t, IsGuestID("guest_1700000000000_abc123def"))
	assert.True(t, IsGuestID("guest_1_a"))

	for _, bad := range []string{
		"",
		"guest__abc",
		"guest_1700000000000_",
		"guest_1700000000000_ABC",
		"user_1700000000000_abc123def",
		"guest_notanumber_abc",
		"guest_1700000000000_abc def",
	} {
		assert.False(t, IsGuestID(bad), "should reject %q", bad)
	}
}

func TestActorRoles(t *testing.T) {
	g := Guest("guest_1700000000000_abc123def")
	assert.True(t, g.IsGuest())
	assert.Equal(t, "guest_1700000000000_abc123def", g.ID)

	u := Authenticated("shopper@example.com", "Shopper")
	assert.False(t, u.IsGuest())
	assert.Equal(t, "shopper@example.com", u.ID)
	assert.Equal(t, "Shopper", u.DisplayName)
}

// resolveActor runs one request through the Resolver and returns the actor
// seen by the inner handler plus the recorder.
func resolveActor(t *testing.T, mutate func(*http.Request)) (Actor, *httptest.ResponseRecorder) {
	t.Helper()
	var got Actor
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := FromContext(r.Context())
		require.True(t, ok, "resolver must always set an actor")
		got = a
	})

	req := httptest.NewRequest(http.MethodGet, "/api/storefront/cart", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	Resolver(testSecret, newTestLogger())(inner).ServeHTTP(rec, req)
	return got, rec
}

func TestResolverMintsGuestCookie(t *testing.T) {
	actor, rec := resolveActor(t, nil)

	assert.True(t, actor.IsGuest())
	assert.True(t, IsGuestID(actor.ID))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == GuestCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "a fresh guest must receive the identity cookie")
	assert.Equal(t, actor.ID, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestResolverReusesValidGuestCookie(t *testing.T) {
	const existing = "guest_1700000000000_abc123def"
	actor, rec := resolveActor(t, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: GuestCookieName, Value: existing})
	})

	assert.Equal(t, existing, actor.ID)
	assert.Empty(t, rec.Result().Cookies(), "a valid cookie must not be re-set")
}

func TestResolverReplacesMalformedGuestCookie(t *testing.T) {
	actor, rec := resolveActor(t, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: GuestCookieName, Value: "tampered"})
	})

	assert.NotEqual(t, "tampered", actor.ID)
	assert.True(t, IsGuestID(actor.ID))
	require.NotEmpty(t, rec.Result().Cookies())
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestResolverAcceptsBearerToken(t *testing.T) {
	signed := signToken(t, testSecret, jwt.MapClaims{
		"email": "shopper@example.com",
		"name":  "Shopper",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	actor, _ := resolveActor(t, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+signed)
	})

	assert.False(t, actor.IsGuest())
	assert.Equal(t, "shopper@example.com", actor.ID)
	assert.Equal(t, "Shopper", actor.DisplayName)
}

func TestResolverFallsBackToSubjectClaim(t *testing.T) {
	signed := signToken(t, testSecret, jwt.MapClaims{
		"sub": "shopper@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	actor, _ := resolveActor(t, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+signed)
	})

	assert.Equal(t, "shopper@example.com", actor.Email)
}

func TestResolverDegradesInvalidTokenToGuest(t *testing.T) {
	badSignature := signToken(t, "wrong-secret", jwt.MapClaims{
		"email": "shopper@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	for _, header := range []string{
		"Bearer " + badSignature,
		"Bearer not-a-token",
		fmt.Sprintf("Basic %s", "dXNlcjpwYXNz"),
	} {
		actor, _ := resolveActor(t, func(r *http.Request) {
			r.Header.Set("Authorization", header)
		})
		assert.True(t, actor.IsGuest(), "header %q must degrade to guest", header)
	}
}
