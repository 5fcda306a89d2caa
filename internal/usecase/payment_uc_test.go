package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/prostore/internal/domain"
)

func completed(id string) *domain.Capture {
	return &domain.Capture{ID: id, Status: domain.CaptureStatusCompleted, PayerEmail: "buyer@example.com", Amount: "79.00"}
}

func TestPaymentUC_StartAndApprove(t *testing.T) {
	ctx := context.Background()
	sh := newShop()
	p := sh.store.addProduct("Polo Shirt", "30", 5)
	u := sh.store.addUser(true, domain.PaymentPayPal)
	o := checkout(t, sh, u, p, p)

	pp := &fakeProvider{method: domain.PaymentPayPal, handle: "PP-1", capture: completed("PP-1")}
	pay := NewPaymentUC(memOrders{sh.store}, sh.orders, pp)

	sess, err := pay.StartPayment(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "PP-1", sess.Handle)

	pending, err := sh.orders.GetByID(ctx, identityOf(u), o.ID)
	require.NoError(t, err)
	require.NotNil(t, pending.PaymentResult)
	assert.Equal(t, domain.PaymentResult{ID: "PP-1", PricePaid: "0"}, *pending.PaymentResult)

	require.NoError(t, pay.ApprovePayment(ctx, o.ID, "PP-1"))
	paid, err := sh.orders.GetByID(ctx, identityOf(u), o.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, "buyer@example.com", paid.PaymentResult.EmailAddress)
	assert.Equal(t, "79.00", paid.PaymentResult.PricePaid)
	assert.Equal(t, 3, sh.store.stock(p.ID))

	assert.ErrorIs(t, pay.ApprovePayment(ctx, o.ID, "PP-1"), domain.ErrAlreadyPaid)
	_, err = pay.StartPayment(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
}

func TestPaymentUC_ApproveFailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		capture  *domain.Capture
		capErr   error
		presents string
		wantErr  error
	}{
		{"presented handle differs", completed("PP-1"), nil, "PP-2", domain.ErrPaymentMismatch},
		{"capture not completed", &domain.Capture{ID: "PP-1", Status: "PENDING"}, nil, "PP-1", domain.ErrPaymentMismatch},
		{"capture id differs", completed("PP-9"), nil, "PP-1", domain.ErrPaymentMismatch},
		{"provider error", nil, errors.New("timeout"), "PP-1", domain.ErrProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sh := newShop()
			p := sh.store.addProduct("Polo Shirt", "30", 5)
			u := sh.store.addUser(true, domain.PaymentPayPal)
			o := checkout(t, sh, u, p)

			pp := &fakeProvider{method: domain.PaymentPayPal, handle: "PP-1", capture: tt.capture, capErr: tt.capErr}
			pay := NewPaymentUC(memOrders{sh.store}, sh.orders, pp)
			_, err := pay.StartPayment(ctx, o.ID)
			require.NoError(t, err)

			err = pay.ApprovePayment(ctx, o.ID, tt.presents)
			assert.ErrorIs(t, err, tt.wantErr)
			got, _ := sh.orders.GetByID(ctx, identityOf(u), o.ID)
			assert.False(t, got.IsPaid)
			assert.Equal(t, 5, sh.store.stock(p.ID))
		})
	}
}

func TestPaymentUC_ApproveWithoutSession(t *testing.T) {
	ctx := context.Background()
	sh := newShop()
	p := sh.store.addProduct("Polo Shirt", "30", 5)
	u := sh.store.addUser(true, domain.PaymentStripe)
	o := checkout(t, sh, u, p)
	pay := NewPaymentUC(memOrders{sh.store}, sh.orders, &fakeProvider{method: domain.PaymentStripe, capture: completed("pi_1")})

	assert.ErrorIs(t, pay.ApprovePayment(ctx, o.ID, "pi_1"), domain.ErrPaymentMismatch)
}

func TestPaymentUC_ProviderNotConfigured(t *testing.T) {
	ctx := context.Background()
	sh := newShop()
	p := sh.store.addProduct("Polo Shirt", "30", 5)
	u := sh.store.addUser(true, domain.PaymentStripe)
	o := checkout(t, sh, u, p)
	pay := NewPaymentUC(memOrders{sh.store}, sh.orders, &fakeProvider{method: domain.PaymentPayPal}, nil)

	_, err := pay.StartPayment(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrProvider)

	pay = NewPaymentUC(memOrders{sh.store}, sh.orders, &fakeProvider{method: domain.PaymentStripe, openErr: errors.New("down")})
	_, err = pay.StartPayment(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestPaymentUC_CashOnDelivery(t *testing.T) {
	ctx := context.Background()
	sh := newShop()
	p := sh.store.addProduct("Polo Shirt", "30", 5)
	cod := sh.store.addUser(true, domain.PaymentCashOnDelivery)
	online := sh.store.addUser(true, domain.PaymentPayPal)
	oc := checkout(t, sh, cod, p)
	oo := checkout(t, sh, online, p)
	pay := NewPaymentUC(memOrders{sh.store}, sh.orders)

	require.NoError(t, pay.MarkPaidCashOnDelivery(ctx, oc.ID))
	got, _ := sh.orders.GetByID(ctx, identityOf(cod), oc.ID)
	assert.True(t, got.IsPaid)
	assert.Nil(t, got.PaymentResult)

	assert.True(t, domain.IsValidation(pay.MarkPaidCashOnDelivery(ctx, oo.ID)))
	assert.ErrorIs(t, pay.MarkPaidCashOnDelivery(ctx, oc.ID), domain.ErrAlreadyPaid)
}

func TestPaymentUC_SoldOutBeforeCaptureIsNotCharged(t *testing.T) {
	ctx := context.Background()
	sh := newShop()
	p := sh.store.addProduct("Last Polo", "30", 1)
	first := sh.store.addUser(true, domain.PaymentPayPal)
	second := sh.store.addUser(true, domain.PaymentPayPal)
	a := checkout(t, sh, first, p)
	b := checkout(t, sh, second, p)

	pp := &fakeProvider{method: domain.PaymentPayPal, handle: "PP-B", capture: completed("PP-B")}
	pay := NewPaymentUC(memOrders{sh.store}, sh.orders, pp)
	pay.Products = memProducts{sh.store}

	_, err := pay.StartPayment(ctx, b.ID)
	require.NoError(t, err)
	require.NoError(t, sh.orders.MarkPaid(ctx, a.ID, nil))

	err = pay.ApprovePayment(ctx, b.ID, "PP-B")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Zero(t, pp.captures, "nothing is captured once the goods are gone")

	_, err = pay.StartPayment(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestPaymentUC_UnsettledCaptureIsKept(t *testing.T) {
	ctx := context.Background()
	sh := newShop()
	p := sh.store.addProduct("Last Polo", "30", 1)
	first := sh.store.addUser(true, domain.PaymentPayPal)
	second := sh.store.addUser(true, domain.PaymentPayPal)
	a := checkout(t, sh, first, p)
	b := checkout(t, sh, second, p)

	pp := &fakeProvider{method: domain.PaymentPayPal, handle: "PP-B", capture: completed("PP-B")}
	pay := NewPaymentUC(memOrders{sh.store}, sh.orders, pp)
	pay.Products = memProducts{sh.store}
	_, err := pay.StartPayment(ctx, b.ID)
	require.NoError(t, err)

	// the other order settles while the provider is capturing
	pp.onCapture = func() { require.NoError(t, sh.orders.MarkPaid(ctx, a.ID, nil)) }

	err = pay.ApprovePayment(ctx, b.ID, "PP-B")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, pp.captures)

	got, err := sh.orders.GetByID(ctx, identityOf(second), b.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPaid)
	require.NotNil(t, got.PaymentResult)
	assert.Equal(t, *completed("PP-B").Result(), *got.PaymentResult)
	assert.Equal(t, 0, sh.store.stock(p.ID))
}
