package domain

import "github.com/shopspring/decimal"

var (
	freeShippingOver = decimal.NewFromInt(100)
	flatShipping     = decimal.NewFromInt(10)
	taxRate          = decimal.RequireFromString("0.15")
)

// PricedLine is anything with a unit price and a quantity.
type PricedLine interface {
	UnitPrice() decimal.Decimal
	Quantity() int
}

func (i CartItem) UnitPrice() decimal.Decimal { return i.Price }
func (i CartItem) Quantity() int              { return i.Qty }

type Prices struct {
	Items    decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// PriceStrings is the fixed two-decimal rendition of Prices.
type PriceStrings struct {
	ItemsPrice    string `json:"itemsPrice"`
	ShippingPrice string `json:"shippingPrice"`
	TaxPrice      string `json:"taxPrice"`
	TotalPrice    string `json:"totalPrice"`
}

func (p Prices) Strings() PriceStrings {
	return PriceStrings{
		ItemsPrice:    p.Items.StringFixed(2),
		ShippingPrice: p.Shipping.StringFixed(2),
		TaxPrice:      p.Tax.StringFixed(2),
		TotalPrice:    p.Total.StringFixed(2),
	}
}

// Round2 rounds half-up to the cent.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// CalcPrice computes the cart totals. Shipping is free strictly above 100, tax is 15% of items.
func CalcPrice[T PricedLine](lines []T) Prices {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity()))))
	}
	items := Round2(sum)
	shipping := flatShipping
	if items.GreaterThan(freeShippingOver) {
		shipping = decimal.Zero
	}
	tax := Round2(items.Mul(taxRate))
	return Prices{
		Items:    items,
		Shipping: shipping,
		Tax:      tax,
		Total:    Round2(items.Add(shipping).Add(tax)),
	}
}
