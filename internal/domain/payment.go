package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentMethod is the closed set of ways an order can be paid.
type PaymentMethod string

const (
	PaymentPayPal         PaymentMethod = "PayPal"
	PaymentStripe         PaymentMethod = "Stripe"
	PaymentCashOnDelivery PaymentMethod = "CashOnDelivery"
)

var PaymentMethods = []PaymentMethod{PaymentPayPal, PaymentStripe, PaymentCashOnDelivery}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	for _, m := range PaymentMethods {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, true
		}
	}
	return "", false
}

// Online reports whether the method is settled through a remote provider.
func (m PaymentMethod) Online() bool {
	return m == PaymentPayPal || m == PaymentStripe
}

type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	EmailAddress string `json:"email_address"`
	PricePaid    string `json:"pricePaid"`
}

// Value stores the result as a JSON document so it can be set with a single column update.
func (r PaymentResult) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *PaymentResult) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return fmt.Errorf("payment result: unsupported type %T", src)
}

// CaptureStatusCompleted is the normalized status of a settled provider capture.
const CaptureStatusCompleted = "COMPLETED"

// PaymentSession is the remote handle opened for an order.
type PaymentSession struct {
	Handle       string `json:"id"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// Capture is the provider's report about a payment handle.
type Capture struct {
	ID         string
	Status     string
	PayerEmail string
	Amount     string
}

func (c *Capture) Completed() bool {
	return c != nil && strings.EqualFold(c.Status, CaptureStatusCompleted)
}

func (c *Capture) Result() *PaymentResult {
	return &PaymentResult{ID: c.ID, Status: c.Status, EmailAddress: c.PayerEmail, PricePaid: c.Amount}
}
