package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/phenrril/prostore/internal/domain"
)

// mailSender is satisfied by *gomail.Dialer.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// EmailNotifier mails the purchase receipt to the buyer.
type EmailNotifier struct {
	from   string
	sender mailSender
}

func NewEmailNotifier(cfg SMTPConfig) *EmailNotifier {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &EmailNotifier{from: from, sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)}
}

func (n *EmailNotifier) PurchaseReceipt(_ context.Context, o *domain.Order) error {
	if o == nil || o.User == nil || o.User.Email == "" {
		return errors.New("receipt: order has no buyer e-mail")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", o.User.Email)
	m.SetHeader("Subject", fmt.Sprintf("Order Confirmation %s", o.ID))
	m.SetBody("text/plain", receiptText(o))
	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("receipt mail: %w", err)
	}
	return nil
}

func receiptText(o *domain.Order) string {
	var buf bytes.Buffer
	name := ""
	if o.User != nil {
		name = o.User.Name
	}
	_, _ = fmt.Fprintf(&buf, "Hi %s,\n\nThanks for your purchase.\n\n", name)
	_, _ = fmt.Fprintf(&buf, "Order: %s\n", o.ID)
	if o.PaidAt != nil {
		_, _ = fmt.Fprintf(&buf, "Paid: %s\n", o.PaidAt.Format("2006-01-02 15:04"))
	}
	_, _ = fmt.Fprintf(&buf, "Payment: %s\n\nItems:\n", o.PaymentMethod)
	for _, it := range o.Items {
		_, _ = fmt.Fprintf(&buf, "- %s x%d $%s\n", it.Name, it.Qty, it.Price.StringFixed(2))
	}
	_, _ = fmt.Fprintf(&buf, "\nItems: $%s\nTax: $%s\nShipping: $%s\nTotal: $%s\n",
		o.ItemsPrice.StringFixed(2), o.TaxPrice.StringFixed(2), o.ShippingPrice.StringFixed(2), o.TotalPrice.StringFixed(2))
	a := o.ShippingAddress
	_, _ = fmt.Fprintf(&buf, "\nShip to: %s, %s, %s %s, %s\n", a.FullName, a.StreetAddress, a.City, a.PostalCode, a.Country)
	return buf.String()
}
