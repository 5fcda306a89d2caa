package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/prostore/internal/domain"
)

type PaymentUC struct {
	Orders    domain.OrderRepo
	Products  domain.ProductRepo
	Workflow  *OrderUC
	Providers map[domain.PaymentMethod]domain.PaymentProvider
}

func NewPaymentUC(orders domain.OrderRepo, workflow *OrderUC, providers ...domain.PaymentProvider) *PaymentUC {
	uc := &PaymentUC{Orders: orders, Workflow: workflow, Providers: map[domain.PaymentMethod]domain.PaymentProvider{}}
	for _, p := range providers {
		if p != nil {
			uc.Providers[p.Method()] = p
		}
	}
	return uc
}

func (uc *PaymentUC) provider(m domain.PaymentMethod) (domain.PaymentProvider, error) {
	p, ok := uc.Providers[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not configured", domain.ErrProvider, m)
	}
	return p, nil
}

func (uc *PaymentUC) load(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("order")
		}
		return nil, err
	}
	return o, nil
}

// StartPayment opens a remote payment session for the order total and stores its handle on the order.
func (uc *PaymentUC) StartPayment(ctx context.Context, orderID uuid.UUID) (*domain.PaymentSession, error) {
	o, err := uc.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.IsPaid {
		return nil, domain.ErrAlreadyPaid
	}
	p, err := uc.provider(o.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if err := uc.ensureStock(ctx, o); err != nil {
		return nil, err
	}
	sess, err := p.OpenSession(ctx, o)
	if err != nil {
		log.Error().Err(err).Str("order_id", o.ID.String()).Str("method", string(o.PaymentMethod)).Msg("open payment session")
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	pending := &domain.PaymentResult{ID: sess.Handle, PricePaid: "0"}
	if err := uc.Orders.SetPaymentResult(ctx, o.ID, pending); err != nil {
		return nil, err
	}
	return sess, nil
}

// ApprovePayment captures the provider payment behind handle and settles the order. Any mismatch
// between the capture, the stored handle and the presented handle fails closed.
func (uc *PaymentUC) ApprovePayment(ctx context.Context, orderID uuid.UUID, handle string) error {
	o, err := uc.load(ctx, orderID)
	if err != nil {
		return err
	}
	if o.IsPaid {
		return domain.ErrAlreadyPaid
	}
	if o.PaymentResult == nil || o.PaymentResult.ID == "" || o.PaymentResult.ID != handle {
		return domain.ErrPaymentMismatch
	}
	p, err := uc.provider(o.PaymentMethod)
	if err != nil {
		return err
	}
	if err := uc.ensureStock(ctx, o); err != nil {
		log.Warn().Err(err).Str("order_id", o.ID.String()).Str("handle", handle).Msg("payment not captured")
		return err
	}
	capture, err := p.Capture(ctx, handle)
	if err != nil {
		log.Error().Err(err).Str("order_id", o.ID.String()).Str("handle", handle).Msg("capture payment")
		return fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	if !capture.Completed() || capture.ID != o.PaymentResult.ID {
		log.Warn().Str("order_id", o.ID.String()).Str("status", capture.Status).Str("capture_id", capture.ID).Msg("capture rejected")
		return domain.ErrPaymentMismatch
	}
	if err := uc.Workflow.MarkPaid(ctx, o.ID, capture.Result()); err != nil {
		// The provider holds the money; keep its receipt on the order for reconciliation.
		if serr := uc.Orders.SetPaymentResult(ctx, o.ID, capture.Result()); serr != nil {
			log.Error().Err(serr).Str("order_id", o.ID.String()).Msg("store unsettled capture")
		}
		log.Error().Err(err).
			Str("order_id", o.ID.String()).
			Str("capture_id", capture.ID).
			Str("payer", capture.PayerEmail).
			Str("amount", capture.Amount).
			Msg("captured payment not settled")
		return err
	}
	return nil
}

// ensureStock fails with ErrInsufficientStock when any order line exceeds current stock. The
// decrement at settlement stays authoritative; this only avoids charging for goods that are gone.
func (uc *PaymentUC) ensureStock(ctx context.Context, o *domain.Order) error {
	if uc.Products == nil {
		return nil
	}
	for _, it := range o.Items {
		p, err := uc.Products.FindByID(ctx, it.ProductID)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%s: %w", it.Name, domain.ErrInsufficientStock)
			}
			return err
		}
		if p.Stock < it.Qty {
			return fmt.Errorf("%s: %w", p.Name, domain.ErrInsufficientStock)
		}
	}
	return nil
}

// MarkPaidCashOnDelivery settles a cash-on-delivery order on an admin's word.
func (uc *PaymentUC) MarkPaidCashOnDelivery(ctx context.Context, orderID uuid.UUID) error {
	o, err := uc.load(ctx, orderID)
	if err != nil {
		return err
	}
	if o.PaymentMethod != domain.PaymentCashOnDelivery {
		return domain.NewValidationError("paymentMethod", "order is not cash on delivery")
	}
	return uc.Workflow.MarkPaid(ctx, o.ID, nil)
}
