package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/prostore/internal/domain"
)

// memStore is an in-memory stand-in for the Postgres repositories. A single mutex plays the role of
// the row locks the real repositories take.
type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]domain.Product
	carts    map[uuid.UUID]domain.Cart
	orders   map[uuid.UUID]domain.Order
	users    map[uuid.UUID]domain.User
	reviews  []domain.Review

	lastFilter domain.ProductFilter
}

func newMemStore() *memStore {
	return &memStore{
		products: map[uuid.UUID]domain.Product{},
		carts:    map[uuid.UUID]domain.Cart{},
		orders:   map[uuid.UUID]domain.Order{},
		users:    map[uuid.UUID]domain.User{},
	}
}

func (s *memStore) addProduct(name, price string, stock int) domain.Product {
	p := domain.Product{ID: uuid.New(), Name: name, Slug: Slugify(name), Price: decimal.RequireFromString(price), Stock: stock, Images: []string{"/img/" + Slugify(name) + ".jpg"}}
	s.products[p.ID] = p
	return p
}

func (s *memStore) addUser(withAddress bool, method domain.PaymentMethod) domain.User {
	u := domain.User{ID: uuid.New(), Name: "Jane", Email: uuid.NewString()[:8] + "@example.com", Role: domain.RoleUser, PaymentMethod: method}
	if withAddress {
		u.Address = &domain.ShippingAddress{FullName: "Jane Doe", StreetAddress: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func cloneCart(c domain.Cart) *domain.Cart {
	c.Items = append([]domain.CartItem(nil), c.Items...)
	return &c
}

func cloneOrder(o domain.Order) *domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.PaymentResult != nil {
		pr := *o.PaymentResult
		o.PaymentResult = &pr
	}
	return &o
}

// products

type memProducts struct{ *memStore }

func (r memProducts) Save(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.products {
		if id != p.ID && other.Slug == p.Slug {
			return domain.ErrConflict
		}
	}
	r.products[p.ID] = *p
	return nil
}

func (r memProducts) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.NotFound("product")
	}
	return &p, nil
}

func (r memProducts) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, domain.NotFound("product")
}

func (r memProducts) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = f
	var out []domain.Product
	for _, p := range r.products {
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.MinRating != nil && p.Rating.LessThan(*f.MinRating) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	total := int64(len(out))
	start := (f.Page - 1) * f.PageSize
	if start > len(out) {
		start = len(out)
	}
	end := start + f.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r memProducts) Latest(context.Context, int) ([]domain.Product, error)   { return nil, nil }
func (r memProducts) Featured(context.Context, int) ([]domain.Product, error) { return nil, nil }
func (r memProducts) Categories(context.Context) ([]domain.CategoryCount, error) {
	return nil, nil
}

func (r memProducts) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.NotFound("product")
	}
	delete(r.products, id)
	return nil
}

func (r memProducts) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.products)), nil
}

// carts

type memCarts struct{ *memStore }

func (r memCarts) find(owner domain.CartOwner) (domain.Cart, bool) {
	for _, c := range r.carts {
		if owner.UserID != nil {
			if c.UserID != nil && *c.UserID == *owner.UserID {
				return c, true
			}
			continue
		}
		if c.SessionCartID != nil && *c.SessionCartID == owner.SessionCartID {
			return c, true
		}
	}
	return domain.Cart{}, false
}

func (r memCarts) FindByOwner(_ context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.find(owner)
	if !ok {
		return nil, domain.NotFound("cart")
	}
	return cloneCart(c), nil
}

func (r memCarts) Mutate(_ context.Context, owner domain.CartOwner, fn domain.CartMutation) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var arg *domain.Cart
	if c, ok := r.find(owner); ok {
		arg = cloneCart(c)
	}
	next, err := fn(arg)
	if err != nil {
		return nil, err
	}
	r.carts[next.ID] = *cloneCart(*next)
	return next, nil
}

func (r memCarts) BindToUser(_ context.Context, sessionCartID string, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.find(domain.CartOwner{SessionCartID: sessionCartID})
	if !ok {
		return domain.NotFound("cart")
	}
	for id, other := range r.carts {
		if other.UserID != nil && *other.UserID == userID && id != c.ID {
			other.UserID = nil
			r.carts[id] = other
		}
	}
	c.UserID = &userID
	r.carts[c.ID] = c
	return nil
}

// orders

type memOrders struct{ *memStore }

func (r memOrders) Create(_ context.Context, o *domain.Order, cartID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[cartID]
	if !ok {
		return domain.NotFound("cart")
	}
	o.CreatedAt = time.Now()
	r.orders[o.ID] = *cloneOrder(*o)
	c.Clear()
	r.carts[cartID] = c
	return nil
}

func (r memOrders) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.NotFound("order")
	}
	out := cloneOrder(o)
	if u, ok := r.users[o.UserID]; ok {
		out.User = &domain.User{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out, nil
}

func (r memOrders) SetPaymentResult(_ context.Context, id uuid.UUID, pr *domain.PaymentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.IsPaid {
		return domain.ErrAlreadyPaid
	}
	cp := *pr
	o.PaymentResult = &cp
	r.orders[id] = o
	return nil
}

func (r memOrders) MarkPaid(_ context.Context, id uuid.UUID, pr *domain.PaymentResult, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.IsPaid {
		return domain.ErrAlreadyPaid
	}
	for _, it := range o.Items {
		if r.products[it.ProductID].Stock < it.Qty {
			return domain.ErrInsufficientStock
		}
	}
	for _, it := range o.Items {
		p := r.products[it.ProductID]
		p.Stock -= it.Qty
		r.products[it.ProductID] = p
	}
	o.IsPaid = true
	o.PaidAt = &at
	if pr != nil {
		cp := *pr
		o.PaymentResult = &cp
	}
	r.orders[id] = o
	return nil
}

func (r memOrders) MarkDelivered(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	switch {
	case !ok:
		return domain.NotFound("order")
	case !o.IsPaid:
		return domain.ErrNotPaid
	case o.IsDelivered:
		return domain.ErrAlreadyDelivered
	}
	o.IsDelivered = true
	o.DeliveredAt = &at
	r.orders[id] = o
	return nil
}

func (r memOrders) ListByUser(_ context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r memOrders) List(_ context.Context, userName string, page, pageSize int) ([]domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if userName == "" || strings.Contains(strings.ToLower(r.users[o.UserID].Name), strings.ToLower(userName)) {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r memOrders) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

func (r memOrders) Summary(context.Context, int) (*domain.OrderSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.OrderSummary{OrdersCount: int64(len(r.orders))}, nil
}

// users

type memUsers struct{ *memStore }

func (r memUsers) Save(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return domain.ErrConflict
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NotFound("user")
	}
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.NotFound("user")
}

func (r memUsers) List(_ context.Context, page, pageSize int) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r memUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

// reviews

type memReviews struct{ *memStore }

func (r memReviews) Upsert(_ context.Context, rv *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for i := range r.reviews {
		if r.reviews[i].UserID == rv.UserID && r.reviews[i].ProductID == rv.ProductID {
			rv.ID = r.reviews[i].ID
			r.reviews[i] = *rv
			found = true
		}
	}
	if !found {
		r.reviews = append(r.reviews, *rv)
	}
	sum, n := 0, 0
	for _, x := range r.reviews {
		if x.ProductID == rv.ProductID {
			sum += x.Rating
			n++
		}
	}
	p := r.products[rv.ProductID]
	p.NumReviews = n
	p.Rating = decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n))).Round(2)
	r.products[rv.ProductID] = p
	return nil
}

func (r memReviews) ListByProduct(_ context.Context, productID uuid.UUID) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Review
	for _, x := range r.reviews {
		if x.ProductID == productID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (r memReviews) FindByUserAndProduct(_ context.Context, userID, productID uuid.UUID) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.reviews {
		if x.UserID == userID && x.ProductID == productID {
			return &x, nil
		}
	}
	return nil, domain.NotFound("review")
}

// collaborators

type spyPages struct {
	mu    sync.Mutex
	slugs []string
}

func (s *spyPages) InvalidateProduct(slug string) {
	s.mu.Lock()
	s.slugs = append(s.slugs, slug)
	s.mu.Unlock()
}

type spyNotifier struct {
	mu     sync.Mutex
	orders []*domain.Order
	err    error
}

func (s *spyNotifier) PurchaseReceipt(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
	return s.err
}

type fakeProvider struct {
	method  domain.PaymentMethod
	handle  string
	capture *domain.Capture
	openErr error
	capErr  error

	captures  int
	onCapture func()
}

func (f *fakeProvider) Method() domain.PaymentMethod { return f.method }

func (f *fakeProvider) OpenSession(context.Context, *domain.Order) (*domain.PaymentSession, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &domain.PaymentSession{Handle: f.handle}, nil
}

func (f *fakeProvider) Capture(context.Context, string) (*domain.Capture, error) {
	f.captures++
	if f.onCapture != nil {
		f.onCapture()
	}
	if f.capErr != nil {
		return nil, f.capErr
	}
	return f.capture, nil
}

// shop wires every use case over one memStore.
type shop struct {
	store    *memStore
	pages    *spyPages
	notifier *spyNotifier
	products *ProductUC
	carts    *CartUC
	orders   *OrderUC
	users    *UserUC
	reviews  *ReviewUC
}

func newShop() *shop {
	st := newMemStore()
	sh := &shop{store: st, pages: &spyPages{}, notifier: &spyNotifier{}}
	sh.products = &ProductUC{Products: memProducts{st}, Pages: sh.pages, PageSize: 2}
	sh.carts = &CartUC{Carts: memCarts{st}, Products: memProducts{st}, Pages: sh.pages}
	sh.orders = &OrderUC{
		Orders: memOrders{st}, Carts: memCarts{st}, Users: memUsers{st}, Notifier: sh.notifier,
		Now:      func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		Dispatch: func(fn func()) { fn() },
	}
	sh.users = &UserUC{Users: memUsers{st}, Carts: memCarts{st}}
	sh.reviews = &ReviewUC{Reviews: memReviews{st}, Products: memProducts{st}, Pages: sh.pages}
	return sh
}

func identityOf(u domain.User) *domain.Identity {
	return &domain.Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func userOwner(u domain.User, session string) domain.CartOwner {
	id := u.ID
	return domain.CartOwner{UserID: &id, SessionCartID: session}
}
