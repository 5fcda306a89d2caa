package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/phenrril/prostore/internal/domain"
	"github.com/phenrril/prostore/internal/usecase"
)

func pageParam(r *http.Request) int {
	p, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "invalid id")
	}
	return id, nil
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.products.List(r.Context(), usecase.CatalogQuery{
		Query:    q.Get("query"),
		Category: q.Get("category"),
		Price:    q.Get("price"),
		Rating:   q.Get("rating"),
		Sort:     q.Get("sort"),
		Page:     pageParam(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) apiLatestProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := s.products.Latest(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", ps)
}

func (s *Server) apiFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := s.products.Featured(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", ps)
}

// apiProductBySlug serves the product page from the page cache when it holds a fresh copy.
func (s *Server) apiProductBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if body, ok := s.pages.Get(slug); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		_, _ = w.Write(body)
		return
	}
	p, err := s.products.GetBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := json.Marshal(ActionResult{Success: true, Data: p})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.pages.Put(slug, body)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(body)
}

func (s *Server) apiCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := s.products.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", cs)
}

func (s *Server) apiProductReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rs, err := s.reviews.ListForProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", rs)
}

func (s *Server) apiMyReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := s.reviews.Mine(r.Context(), IdentityFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", rv)
}

func (s *Server) apiUpsertReview(w http.ResponseWriter, r *http.Request) {
	var in usecase.ReviewInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := s.reviews.CreateOrUpdate(r.Context(), IdentityFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Review updated successfully", rv)
}
