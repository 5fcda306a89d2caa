package httpserver

import (
	"net/http"

	"github.com/phenrril/prostore/internal/domain"
	"github.com/phenrril/prostore/internal/usecase"
)

func (s *Server) apiAdminSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.orders.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", sum)
}

func (s *Server) apiAdminOrders(w http.ResponseWriter, r *http.Request) {
	page, err := s.orders.List(r.Context(), r.URL.Query().Get("query"), pageParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) apiAdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.orders.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Order deleted successfully", nil)
}

func (s *Server) apiAdminMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.payments.MarkPaidCashOnDelivery(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Order marked as paid", nil)
}

func (s *Server) apiAdminDeliver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.orders.DeliverOrder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Order marked as delivered", nil)
}

func (s *Server) apiAdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in usecase.ProductInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.products.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Product created successfully", p)
}

func (s *Server) apiAdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.ProductInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.products.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Product updated successfully", p)
}

func (s *Server) apiAdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.products.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Product deleted successfully", nil)
}

type removeImageReq struct {
	Image string `json:"image" validate:"required"`
}

func (s *Server) apiAdminRemoveImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req removeImageReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.products.RemoveImage(r.Context(), id, req.Image); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Image removed", nil)
}

func (s *Server) apiAdminRemoveBanner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.products.RemoveBanner(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Banner removed", nil)
}

func (s *Server) apiAdminUsers(w http.ResponseWriter, r *http.Request) {
	page, err := s.users.List(r.Context(), pageParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type updateUserReq struct {
	Name string `json:"name" validate:"required,min=3"`
	Role string `json:"role" validate:"required,oneof=user admin"`
}

func (s *Server) apiAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateUserReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.users.UpdateRole(r.Context(), id, req.Name, domain.Role(req.Role)); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "User updated successfully", nil)
}

func (s *Server) apiAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if me := IdentityFrom(r.Context()); me != nil && me.UserID == id {
		writeError(w, r, domain.NewValidationError("id", "you cannot delete yourself"))
		return
	}
	if err := s.users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "User deleted successfully", nil)
}
