package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/prostore/internal/domain"
)

func TestProductBySlug_PageCache(t *testing.T) {
	env := newTestEnv(t)
	env.products.bySlug["polo"] = &domain.Product{ID: uuid.New(), Name: "Polo", Slug: "polo", Price: decimal.RequireFromString("59.99"), Stock: 3}

	rec := env.do(http.MethodGet, "/api/products/polo", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	first := rec.Body.String()

	rec = env.do(http.MethodGet, "/api/products/polo", nil, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, first, rec.Body.String())
	assert.Equal(t, 1, env.products.calls)

	env.srv.pages.InvalidateProduct("polo")
	rec = env.do(http.MethodGet, "/api/products/polo", nil, nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, env.products.calls)
}

func TestProductBySlug_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/products/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", decodeResult(t, rec).Message)
	_, cached := env.srv.pages.Get("missing")
	assert.False(t, cached)
}

func TestPageCache_Expires(t *testing.T) {
	c := NewPageCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("polo", []byte("x"))
	_, ok := c.Get("polo")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("polo")
	assert.False(t, ok)
}
