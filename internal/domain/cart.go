package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
}

type Cart struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        *uuid.UUID      `gorm:"type:uuid;index" json:"userId,omitempty"`
	SessionCartID *string         `gorm:"size:64;uniqueIndex" json:"sessionCartId,omitempty"`
	Items         []CartItem      `gorm:"type:jsonb;serializer:json" json:"items"`
	ItemsPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"itemsPrice"`
	ShippingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"shippingPrice"`
	TaxPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"taxPrice"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalPrice"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// SetItems replaces the lines and recomputes every total from them.
func (c *Cart) SetItems(items []CartItem) {
	if items == nil {
		items = []CartItem{}
	}
	c.Items = items
	p := CalcPrice(items)
	c.ItemsPrice = p.Items
	c.ShippingPrice = p.Shipping
	c.TaxPrice = p.Tax
	c.TotalPrice = p.Total
}

// Clear empties the cart and zeroes its totals.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.ItemsPrice = decimal.Zero
	c.ShippingPrice = decimal.Zero
	c.TaxPrice = decimal.Zero
	c.TotalPrice = decimal.Zero
}

func (c *Cart) Line(productID uuid.UUID) (int, *CartItem) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i, &c.Items[i]
		}
	}
	return -1, nil
}

func (c *Cart) Empty() bool { return c == nil || len(c.Items) == 0 }

// CartOwner identifies the cart of the current request: the authenticated user when there is one,
// the anonymous session cart otherwise.
type CartOwner struct {
	UserID        *uuid.UUID
	SessionCartID string
}
