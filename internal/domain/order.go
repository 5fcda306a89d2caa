package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null" json:"userId"`
	User            *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ShippingAddress ShippingAddress `gorm:"type:jsonb;serializer:json" json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(30);index" json:"paymentMethod"`
	PaymentResult   *PaymentResult  `gorm:"type:jsonb" json:"paymentResult,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderItems"`
	ItemsPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shippingPrice"`
	TaxPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"taxPrice"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
	IsPaid          bool            `gorm:"not null;default:false" json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `gorm:"not null;default:false" json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is a snapshot of a cart line at order time. Later product edits do not reach it.
type OrderItem struct {
	OrderID   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"orderId"`
	ProductID uuid.UUID       `gorm:"type:uuid;primaryKey" json:"productId"`
	Qty       int             `gorm:"not null" json:"qty"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Name      string          `gorm:"size:180" json:"name"`
	Slug      string          `gorm:"size:180" json:"slug"`
	Image     string          `gorm:"size:255" json:"image"`
}

func (i OrderItem) UnitPrice() decimal.Decimal { return i.Price }
func (i OrderItem) Quantity() int              { return i.Qty }

// NewOrderFromCart snapshots the cart lines and totals into a new unpaid order.
func NewOrderFromCart(c *Cart, u *User) *Order {
	o := &Order{
		ID:            uuid.New(),
		UserID:        u.ID,
		PaymentMethod: u.PaymentMethod,
		ItemsPrice:    c.ItemsPrice,
		ShippingPrice: c.ShippingPrice,
		TaxPrice:      c.TaxPrice,
		TotalPrice:    c.TotalPrice,
	}
	if u.Address != nil {
		o.ShippingAddress = *u.Address
	}
	o.Items = make([]OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		o.Items = append(o.Items, OrderItem{
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Qty:       it.Qty,
			Price:     it.Price,
			Name:      it.Name,
			Slug:      it.Slug,
			Image:     it.Image,
		})
	}
	return o
}

type OrderSummary struct {
	OrdersCount   int64           `json:"ordersCount"`
	ProductsCount int64           `json:"productsCount"`
	UsersCount    int64           `json:"usersCount"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	SalesData     []MonthlySales  `json:"salesData"`
	LatestOrders  []Order         `json:"latestOrders"`
}

type MonthlySales struct {
	Month      string          `json:"month"`
	TotalSales decimal.Decimal `json:"totalSales"`
}
