package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/prostore/internal/domain"
	"github.com/phenrril/prostore/internal/usecase"
)

// The stubs embed the repository interfaces and override only what the handlers under test reach.

type stubProducts struct {
	domain.ProductRepo
	mu     sync.Mutex
	bySlug map[string]*domain.Product
	calls  int
}

func (s *stubProducts) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	p, ok := s.bySlug[slug]
	if !ok {
		return nil, domain.NotFound("product")
	}
	cp := *p
	return &cp, nil
}

type stubUsers struct {
	domain.UserRepo
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func (s *stubUsers) Save(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.NotFound("user")
	}
	return &u, nil
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.NotFound("user")
}

func (s *stubUsers) List(_ context.Context, _, _ int) ([]domain.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

type stubCarts struct{ domain.CartRepo }

func (stubCarts) FindByOwner(context.Context, domain.CartOwner) (*domain.Cart, error) {
	return nil, domain.NotFound("cart")
}

func (stubCarts) BindToUser(context.Context, string, uuid.UUID) error {
	return domain.NotFound("cart")
}

type stubOrders struct {
	domain.OrderRepo
	orders map[uuid.UUID]domain.Order
}

func (s *stubOrders) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.NotFound("order")
	}
	return &o, nil
}

type testEnv struct {
	srv      *Server
	h        http.Handler
	products *stubProducts
	users    *stubUsers
	orders   *stubOrders
}

func newTestEnv(t *testing.T, mod ...func(*Deps)) *testEnv {
	t.Helper()
	env := &testEnv{
		products: &stubProducts{bySlug: map[string]*domain.Product{}},
		users:    &stubUsers{users: map[uuid.UUID]domain.User{}},
		orders:   &stubOrders{orders: map[uuid.UUID]domain.Order{}},
	}
	pages := NewPageCache(time.Minute)
	workflow := &usecase.OrderUC{Orders: env.orders, Carts: stubCarts{}, Users: env.users, Dispatch: func(fn func()) { fn() }}
	d := Deps{
		Products:   &usecase.ProductUC{Products: env.products, Pages: pages},
		Carts:      &usecase.CartUC{Carts: stubCarts{}, Products: env.products, Pages: pages},
		Orders:     workflow,
		Payments:   usecase.NewPaymentUC(env.orders, workflow),
		Users:      &usecase.UserUC{Users: env.users, Carts: stubCarts{}},
		Pages:      pages,
		SessionKey: "test-session-key",
		JWTSecret:  "test-jwt-secret",
	}
	for _, m := range mod {
		m(&d)
	}
	env.srv = newServer(d)
	env.h = env.srv.handler()
	return env
}

func (e *testEnv) addUser(role domain.Role) domain.User {
	u := domain.User{ID: uuid.New(), Name: "Jane", Email: uuid.NewString()[:8] + "@example.com", Role: role}
	e.users.users[u.ID] = u
	return u
}

func (e *testEnv) bearer(t *testing.T, u domain.User) string {
	t.Helper()
	tok, _, err := e.srv.issueToken(newSessionUser(&u), time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (e *testEnv) do(method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) ActionResult {
	t.Helper()
	var res ActionResult
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&res))
	return res
}
