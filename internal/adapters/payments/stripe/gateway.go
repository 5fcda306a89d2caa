package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/phenrril/prostore/internal/domain"
)

// intentAPI is the slice of the PaymentIntents client the gateway needs.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type Gateway struct {
	intents       intentAPI
	currency      string
	webhookSecret string
}

func NewGateway(secretKey, currency, webhookSecret string) *Gateway {
	sc := client.New(secretKey, nil)
	return newGateway(sc.PaymentIntents, currency, webhookSecret)
}

func newGateway(api intentAPI, currency, webhookSecret string) *Gateway {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &Gateway{intents: api, currency: strings.ToLower(currency), webhookSecret: webhookSecret}
}

func (g *Gateway) Method() domain.PaymentMethod { return domain.PaymentStripe }

func (g *Gateway) OpenSession(ctx context.Context, o *domain.Order) (*domain.PaymentSession, error) {
	if o == nil {
		return nil, errors.New("nil order")
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(o.TotalPrice)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{"orderId": o.ID.String()},
	}
	params.Context = ctx
	pi, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create intent: %w", err)
	}
	return &domain.PaymentSession{Handle: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *Gateway) Capture(ctx context.Context, handle string) (*domain.Capture, error) {
	if handle == "" {
		return nil, errors.New("stripe: empty intent id")
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.intents.Get(handle, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get intent: %w", err)
	}
	return captureFrom(pi), nil
}

// captureFrom normalizes an intent. Only a succeeded intent reports COMPLETED.
func captureFrom(pi *stripe.PaymentIntent) *domain.Capture {
	status := string(pi.Status)
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		status = domain.CaptureStatusCompleted
	}
	return &domain.Capture{
		ID:         pi.ID,
		Status:     status,
		PayerEmail: pi.ReceiptEmail,
		Amount:     decimal.New(pi.AmountReceived, -2).StringFixed(2),
	}
}

// WebhookEvent is a verified payment_intent.succeeded notification.
type WebhookEvent struct {
	OrderID string
	Handle  string
}

// ErrIgnoredEvent is returned for verified events the store does not act on.
var ErrIgnoredEvent = errors.New("stripe: event ignored")

// VerifyWebhook checks the Stripe-Signature header and extracts the order the intent pays for.
func (g *Gateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, errors.New("stripe: webhook secret not configured")
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("stripe: verify webhook: %w", err)
	}
	if ev.Type != "payment_intent.succeeded" {
		return nil, ErrIgnoredEvent
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("stripe: decode intent: %w", err)
	}
	orderID := pi.Metadata["orderId"]
	if orderID == "" {
		return nil, ErrIgnoredEvent
	}
	return &WebhookEvent{OrderID: orderID, Handle: pi.ID}, nil
}

func toMinorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
