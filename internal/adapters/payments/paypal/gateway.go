package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/phenrril/prostore/internal/domain"
)

const SandboxURL = "https://api-m.sandbox.paypal.com"

type Gateway struct {
	baseURL    string
	currency   string
	httpClient *http.Client
}

// NewGateway builds a PayPal REST client. Access tokens are fetched and refreshed with the
// client-credentials grant.
func NewGateway(clientID, secret, baseURL, currency string) *Gateway {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = SandboxURL
	}
	if currency == "" {
		currency = "USD"
	}
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: 10 * time.Second})
	client := cc.Client(ctx)
	client.Timeout = 10 * time.Second
	return &Gateway{baseURL: baseURL, currency: currency, httpClient: client}
}

func (g *Gateway) Method() domain.PaymentMethod { return domain.PaymentPayPal }

type ppAmount struct {
	CurrencyCode string `json:"currency_code,omitempty"`
	Value        string `json:"value"`
}

type ppOrderReq struct {
	Intent        string `json:"intent"`
	PurchaseUnits []struct {
		ReferenceID string   `json:"reference_id,omitempty"`
		Amount      ppAmount `json:"amount"`
	} `json:"purchase_units"`
}

type ppOrderResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				Amount ppAmount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type ppError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (g *Gateway) OpenSession(ctx context.Context, o *domain.Order) (*domain.PaymentSession, error) {
	if o == nil {
		return nil, errors.New("nil order")
	}
	req := ppOrderReq{Intent: "CAPTURE"}
	req.PurchaseUnits = make([]struct {
		ReferenceID string   `json:"reference_id,omitempty"`
		Amount      ppAmount `json:"amount"`
	}, 1)
	req.PurchaseUnits[0].ReferenceID = o.ID.String()
	req.PurchaseUnits[0].Amount = ppAmount{CurrencyCode: g.currency, Value: o.TotalPrice.StringFixed(2)}

	var resp ppOrderResp
	if err := g.post(ctx, "/v2/checkout/orders", req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, errors.New("paypal: incomplete response")
	}
	return &domain.PaymentSession{Handle: resp.ID}, nil
}

func (g *Gateway) Capture(ctx context.Context, handle string) (*domain.Capture, error) {
	if handle == "" {
		return nil, errors.New("paypal: empty order id")
	}
	var resp ppOrderResp
	if err := g.post(ctx, "/v2/checkout/orders/"+handle+"/capture", struct{}{}, &resp); err != nil {
		return nil, err
	}
	c := &domain.Capture{ID: resp.ID, Status: resp.Status, PayerEmail: resp.Payer.EmailAddress}
	if len(resp.PurchaseUnits) > 0 && len(resp.PurchaseUnits[0].Payments.Captures) > 0 {
		c.Amount = resp.PurchaseUnits[0].Payments.Captures[0].Amount.Value
	}
	return c, nil
}

func (g *Gateway) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("paypal: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		var pe ppError
		if json.Unmarshal(raw, &pe) == nil && pe.Message != "" {
			return fmt.Errorf("paypal status %d: %s: %s", res.StatusCode, pe.Name, pe.Message)
		}
		return fmt.Errorf("paypal status %d: %s", res.StatusCode, string(raw))
	}
	return json.NewDecoder(res.Body).Decode(out)
}
