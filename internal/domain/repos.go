package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProductRepo interface {
	Save(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	Latest(ctx context.Context, limit int) ([]Product, error)
	Featured(ctx context.Context, limit int) ([]Product, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// CartMutation edits a loaded cart. A nil cart means none exists yet for the owner; the mutation
// returns the cart to persist, or an error to abort without writing.
type CartMutation func(c *Cart) (*Cart, error)

type CartRepo interface {
	FindByOwner(ctx context.Context, owner CartOwner) (*Cart, error)
	// Mutate runs fn with the owner's cart locked against concurrent writers and saves the result.
	Mutate(ctx context.Context, owner CartOwner, fn CartMutation) (*Cart, error)
	// BindToUser makes the session cart the user's cart.
	BindToUser(ctx context.Context, sessionCartID string, userID uuid.UUID) error
}

type OrderRepo interface {
	// Create inserts the order with its items and clears the source cart in one transaction.
	Create(ctx context.Context, o *Order, cartID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	SetPaymentResult(ctx context.Context, id uuid.UUID, r *PaymentResult) error
	// MarkPaid decrements stock for every item and flips isPaid in one transaction.
	MarkPaid(ctx context.Context, id uuid.UUID, r *PaymentResult, at time.Time) error
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Order, int64, error)
	List(ctx context.Context, userName string, page, pageSize int) ([]Order, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Summary(ctx context.Context, latest int) (*OrderSummary, error)
}

type ReviewRepo interface {
	// Upsert writes the user's review for the product and refreshes the product's aggregates.
	Upsert(ctx context.Context, r *Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*Review, error)
}

type UserRepo interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page, pageSize int) ([]User, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentProvider is the capability every online payment method shares.
type PaymentProvider interface {
	Method() PaymentMethod
	OpenSession(ctx context.Context, o *Order) (*PaymentSession, error)
	Capture(ctx context.Context, handle string) (*Capture, error)
}

// Notifier receives paid orders. Delivery failures are the notifier's concern.
type Notifier interface {
	PurchaseReceipt(ctx context.Context, o *Order) error
}

// PageInvalidator drops cached renderings of a product page.
type PageInvalidator interface {
	InvalidateProduct(slug string)
}
