package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/prostore/internal/domain"
)

type OrderUC struct {
	Orders   domain.OrderRepo
	Carts    domain.CartRepo
	Users    domain.UserRepo
	Notifier domain.Notifier
	PageSize int

	// Now and Dispatch are replaced in tests.
	Now      func() time.Time
	Dispatch func(func())
}

func (uc *OrderUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

func (uc *OrderUC) dispatch(fn func()) {
	if uc.Dispatch != nil {
		uc.Dispatch(fn)
		return
	}
	go fn()
}

func (uc *OrderUC) pageSize() int {
	if uc.PageSize <= 0 {
		return DefaultPageSize
	}
	return uc.PageSize
}

// CreateOrder turns the caller's cart into an unpaid order and empties the cart.
func (uc *OrderUC) CreateOrder(ctx context.Context, id *domain.Identity, owner domain.CartOwner) (*domain.Order, error) {
	if id == nil {
		return nil, domain.ErrUnauthenticated
	}
	owner.UserID = &id.UserID
	cart, err := uc.Carts.FindByOwner(ctx, owner)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	user, err := uc.Users.FindByID(ctx, id.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("user")
		}
		return nil, err
	}
	if cart.Empty() {
		return nil, domain.ErrCartEmpty
	}
	if user.Address == nil {
		return nil, domain.ErrMissingAddress
	}
	if user.PaymentMethod == "" {
		return nil, domain.ErrMissingPaymentMethod
	}
	o := domain.NewOrderFromCart(cart, user)
	if err := uc.Orders.Create(ctx, o, cart.ID); err != nil {
		return nil, err
	}
	log.Info().Str("order_id", o.ID.String()).Str("user_id", user.ID.String()).Str("total", o.TotalPrice.StringFixed(2)).Msg("order created")
	return o, nil
}

// GetByID returns the order for its owner or an admin.
func (uc *OrderUC) GetByID(ctx context.Context, id *domain.Identity, orderID uuid.UUID) (*domain.Order, error) {
	if id == nil {
		return nil, domain.ErrUnauthenticated
	}
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("order")
		}
		return nil, err
	}
	if o.UserID != id.UserID && !id.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

// MarkPaid settles an order exactly once: stock is taken and isPaid flips in one transaction,
// then a receipt goes out without blocking the caller.
func (uc *OrderUC) MarkPaid(ctx context.Context, orderID uuid.UUID, result *domain.PaymentResult) error {
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return domain.NotFound("order")
		}
		return err
	}
	if o.IsPaid {
		return domain.ErrAlreadyPaid
	}
	if err := uc.Orders.MarkPaid(ctx, orderID, result, uc.now()); err != nil {
		return err
	}
	log.Info().Str("order_id", orderID.String()).Msg("order paid")

	paid, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID.String()).Msg("reload paid order")
		return nil
	}
	if uc.Notifier != nil {
		uc.dispatch(func() {
			if err := uc.Notifier.PurchaseReceipt(context.Background(), paid); err != nil {
				log.Warn().Err(err).Str("order_id", orderID.String()).Msg("purchase receipt")
			}
		})
	}
	return nil
}

func (uc *OrderUC) DeliverOrder(ctx context.Context, orderID uuid.UUID) error {
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return domain.NotFound("order")
		}
		return err
	}
	if !o.IsPaid {
		return domain.ErrNotPaid
	}
	if o.IsDelivered {
		return domain.ErrAlreadyDelivered
	}
	return uc.Orders.MarkDelivered(ctx, orderID, uc.now())
}

type OrderPage struct {
	Orders     []domain.Order `json:"data"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

func (uc *OrderUC) MyOrders(ctx context.Context, id *domain.Identity, page int) (*OrderPage, error) {
	if id == nil {
		return nil, domain.ErrUnauthenticated
	}
	if page < 1 {
		page = 1
	}
	list, total, err := uc.Orders.ListByUser(ctx, id.UserID, page, uc.pageSize())
	if err != nil {
		return nil, err
	}
	return &OrderPage{Orders: list, Page: page, TotalPages: TotalPages(total, uc.pageSize())}, nil
}

func (uc *OrderUC) List(ctx context.Context, userName string, page int) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if userName == filterAll {
		userName = ""
	}
	list, total, err := uc.Orders.List(ctx, userName, page, uc.pageSize())
	if err != nil {
		return nil, err
	}
	return &OrderPage{Orders: list, Page: page, TotalPages: TotalPages(total, uc.pageSize())}, nil
}

func (uc *OrderUC) Delete(ctx context.Context, orderID uuid.UUID) error {
	if _, err := uc.Orders.FindByID(ctx, orderID); err != nil {
		if isNotFound(err) {
			return domain.NotFound("order")
		}
		return err
	}
	return uc.Orders.Delete(ctx, orderID)
}

func (uc *OrderUC) Summary(ctx context.Context) (*domain.OrderSummary, error) {
	return uc.Orders.Summary(ctx, 6)
}

// RedirectFor maps a checkout precondition failure to the page that resolves it.
func RedirectFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrCartEmpty):
		return "/cart"
	case errors.Is(err, domain.ErrMissingAddress):
		return "/shipping-address"
	case errors.Is(err, domain.ErrMissingPaymentMethod):
		return "/payment-method"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "/sign-in"
	}
	return ""
}
