package httpserver

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/phenrril/prostore/internal/domain"
)

func (s *Server) apiCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.carts.GetCart(r.Context(), cartOwner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c == nil {
		writeOK(w, "", nil)
		return
	}
	writeOK(w, "", cartView(c))
}

type cartItemReq struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

func (s *Server) apiCartAdd(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeError(w, r, domain.NewValidationError("productId", "invalid id"))
		return
	}
	res, err := s.carts.AddItem(r.Context(), cartOwner(r), productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, res.Message, cartView(res.Cart))
}

func (s *Server) apiCartRemove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.carts.RemoveItem(r.Context(), cartOwner(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, res.Message, cartView(res.Cart))
}

// cartJSON renders prices as fixed two-decimal strings.
type cartJSON struct {
	ID            uuid.UUID         `json:"id"`
	Items         []domain.CartItem `json:"items"`
	ItemsPrice    string            `json:"itemsPrice"`
	ShippingPrice string            `json:"shippingPrice"`
	TaxPrice      string            `json:"taxPrice"`
	TotalPrice    string            `json:"totalPrice"`
}

func cartView(c *domain.Cart) *cartJSON {
	if c == nil {
		return nil
	}
	return &cartJSON{
		ID:            c.ID,
		Items:         c.Items,
		ItemsPrice:    c.ItemsPrice.StringFixed(2),
		ShippingPrice: c.ShippingPrice.StringFixed(2),
		TaxPrice:      c.TaxPrice.StringFixed(2),
		TotalPrice:    c.TotalPrice.StringFixed(2),
	}
}
