package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BadarHossain1/harris-vale-storefront/internal/backend"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/httpclient"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/validator"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupService builds a catalog service against a fake backend, counting the
// requests that actually reach it.
func setupService(t *testing.T, h http.HandlerFunc) (*Service, *atomic.Int64, *miniredis.Miniredis) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clientCfg := httpclient.DefaultConfig()
	clientCfg.MaxRetries = 0
	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(clientCfg),
		httpclient.DefaultCircuitBreakerConfig("catalog-test"),
		newTestLogger(),
	)
	client := backend.New(srv.URL, cb, newTestLogger())

	svc := NewService(client, NewCache(rdb, time.Minute), newTestLogger())
	return svc, &hits, mr
}

func serveProducts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/products":
		_, _ = w.Write([]byte(`{"success":true,"data":[{"_id":"p1","name":"Wool Coat","price":500,"images":["a.jpg","b.jpg"]}]}`))
	case "/api/categories":
		_, _ = w.Write([]byte(`{"success":true,"data":[{"_id":"c1","name":"Coats"}]}`))
	case "/api/categories/c1":
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"c1","name":"Outerwear"}}`))
	default:
		http.NotFound(w, r)
	}
}

func TestListProductsCachesSecondRead(t *testing.T) {
	svc, hits, _ := setupService(t, serveProducts)
	ctx := context.Background()

	first, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "Wool Coat", first[0].Name)

	second, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), hits.Load(), "second read must come from cache")
}

func TestListProductsCacheExpires(t *testing.T) {
	svc, hits, mr := setupService(t, serveProducts)
	ctx := context.Background()

	_, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestListProductsCategoryKeysAreSeparate(t *testing.T) {
	svc, hits, _ := setupService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	})
	ctx := context.Background()

	_, err := svc.ListProducts(ctx, "coats")
	require.NoError(t, err)
	_, err = svc.ListProducts(ctx, "shirts")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestNilCachePassesThrough(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		serveProducts(w, r)
	}))
	t.Cleanup(srv.Close)

	clientCfg := httpclient.DefaultConfig()
	clientCfg.MaxRetries = 0
	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(clientCfg),
		httpclient.DefaultCircuitBreakerConfig("nocache-test"),
		newTestLogger(),
	)
	svc := NewService(backend.New(srv.URL, cb, newTestLogger()), nil, newTestLogger())

	ctx := context.Background()
	_, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	_, err = svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestUpdateCategoryValidatesBeforeNetwork(t *testing.T) {
	svc, hits, _ := setupService(t, serveProducts)

	_, err := svc.UpdateCategory(context.Background(), "c1", backend.CategoryUpdate{
		Name: "Outerwear",
		// Description, Image, Color missing.
	})
	require.Error(t, err)

	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Description")
	assert.Contains(t, fields, "Image")
	assert.Contains(t, fields, "Color")
	assert.Equal(t, int64(0), hits.Load(), "invalid form must never reach the backend")
}

func TestUpdateCategoryInvalidatesCategoryCache(t *testing.T) {
	var updates atomic.Int64
	svc, hits, _ := setupService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			updates.Add(1)
			_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"c1","name":"Outerwear"}}`))
			return
		}
		serveProducts(w, r)
	})
	ctx := context.Background()

	// Prime the category cache.
	_, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	_, err = svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), hits.Load())

	cat, err := svc.UpdateCategory(ctx, "c1", backend.CategoryUpdate{
		Name:        "Outerwear",
		Description: "Coats and jackets",
		Image:       "https://cdn.example.com/outerwear.jpg",
		Color:       "#1a1a2e",
	})
	require.NoError(t, err)
	assert.Equal(t, "Outerwear", cat.Name)

	// The next list read must refetch.
	_, err = svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updates.Load())
	assert.Equal(t, int64(3), hits.Load())
}
