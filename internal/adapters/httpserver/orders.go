package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/prostore/internal/adapters/payments/stripe"
	"github.com/phenrril/prostore/internal/domain"
)

func (s *Server) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.CreateOrder(r.Context(), IdentityFrom(r.Context()), cartOwner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRedirect(w, "Order created", "/order/"+o.ID.String(), map[string]string{"id": o.ID.String()})
}

func (s *Server) apiMyOrders(w http.ResponseWriter, r *http.Request) {
	page, err := s.orders.MyOrders(r.Context(), IdentityFrom(r.Context()), pageParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ownOrder loads the order from the path, allowing only its buyer or an admin.
func (s *Server) ownOrder(r *http.Request) (*domain.Order, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return s.orders.GetByID(r.Context(), IdentityFrom(r.Context()), id)
}

func (s *Server) apiOrderByID(w http.ResponseWriter, r *http.Request) {
	o, err := s.ownOrder(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", o)
}

func (s *Server) apiStartPayment(w http.ResponseWriter, r *http.Request) {
	o, err := s.ownOrder(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.payments.StartPayment(r.Context(), o.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Payment session created", sess)
}

type approveReq struct {
	Handle string `json:"orderID" validate:"required"`
}

func (s *Server) apiApprovePayment(w http.ResponseWriter, r *http.Request) {
	o, err := s.ownOrder(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req approveReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.payments.ApprovePayment(r.Context(), o.ID, req.Handle); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Your order has been paid", nil)
}

// webhookStripe settles the order behind a succeeded payment intent.
func (s *Server) webhookStripe(w http.ResponseWriter, r *http.Request) {
	if s.stripeWebhook == nil {
		http.Error(w, "stripe not configured", http.StatusServiceUnavailable)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "body", http.StatusBadRequest)
		return
	}
	ev, err := s.stripeWebhook.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, stripe.ErrIgnoredEvent) {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("stripe webhook rejected")
		http.Error(w, "signature", http.StatusBadRequest)
		return
	}
	orderID, err := uuid.Parse(ev.OrderID)
	if err != nil {
		log.Warn().Str("order", ev.OrderID).Msg("stripe webhook: bad order id")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}
	err = s.payments.ApprovePayment(r.Context(), orderID, ev.Handle)
	if err != nil && !errors.Is(err, domain.ErrAlreadyPaid) {
		log.Error().Err(err).Str("order", ev.OrderID).Str("intent", ev.Handle).Msg("stripe webhook approve")
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
