package usecase

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/prostore/internal/domain"
)

const (
	DefaultPageSize  = 12
	LatestLimit      = 4
	FeaturedLimit    = 4
	filterAll        = "all"
	priceRangeFormat = "price must look like min-max"
)

type ProductUC struct {
	Products domain.ProductRepo
	Pages    domain.PageInvalidator
	PageSize int
}

// CatalogQuery is the raw catalog search as it arrives from the request.
type CatalogQuery struct {
	Query    string
	Category string
	Price    string
	Rating   string
	Sort     string
	Page     int
}

type ProductPage struct {
	Products   []domain.Product `json:"data"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
}

func (uc *ProductUC) pageSize() int {
	if uc.PageSize <= 0 {
		return DefaultPageSize
	}
	return uc.PageSize
}

// ParseFilter turns a CatalogQuery into a ProductFilter. Empty or "all" values disable a filter.
func ParseFilter(q CatalogQuery, pageSize int) (domain.ProductFilter, error) {
	f := domain.ProductFilter{Page: q.Page, PageSize: pageSize, Sort: domain.SortNewest}
	if f.Page < 1 {
		f.Page = 1
	}
	if v := strings.TrimSpace(q.Query); v != "" && v != filterAll {
		f.Query = v
	}
	if v := strings.TrimSpace(q.Category); v != "" && v != filterAll {
		f.Category = v
	}
	if v := strings.TrimSpace(q.Price); v != "" && v != filterAll {
		lo, hi, ok := strings.Cut(v, "-")
		if !ok {
			return f, domain.NewValidationError("price", priceRangeFormat)
		}
		minPrice, err := decimal.NewFromString(strings.TrimSpace(lo))
		if err != nil {
			return f, domain.NewValidationError("price", priceRangeFormat)
		}
		maxPrice, err := decimal.NewFromString(strings.TrimSpace(hi))
		if err != nil || maxPrice.LessThan(minPrice) {
			return f, domain.NewValidationError("price", priceRangeFormat)
		}
		f.MinPrice, f.MaxPrice = &minPrice, &maxPrice
	}
	if v := strings.TrimSpace(q.Rating); v != "" && v != filterAll {
		r, err := decimal.NewFromString(v)
		if err != nil {
			return f, domain.NewValidationError("rating", "rating must be a number")
		}
		f.MinRating = &r
	}
	switch q.Sort {
	case domain.SortLowest, domain.SortHighest, domain.SortRating:
		f.Sort = q.Sort
	}
	return f, nil
}

// TotalPages is ceil(count / pageSize).
func TotalPages(count int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(count) / float64(pageSize)))
}

func (uc *ProductUC) List(ctx context.Context, q CatalogQuery) (*ProductPage, error) {
	f, err := ParseFilter(q, uc.pageSize())
	if err != nil {
		return nil, err
	}
	list, total, err := uc.Products.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: list, Total: total, Page: f.Page, TotalPages: TotalPages(total, f.PageSize)}, nil
}

func (uc *ProductUC) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	if slug == "" {
		return nil, domain.NewValidationError("slug", "slug is required")
	}
	return uc.Products.FindBySlug(ctx, slug)
}

func (uc *ProductUC) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return uc.Products.FindByID(ctx, id)
}

func (uc *ProductUC) Latest(ctx context.Context) ([]domain.Product, error) {
	return uc.Products.Latest(ctx, LatestLimit)
}

func (uc *ProductUC) Featured(ctx context.Context) ([]domain.Product, error) {
	return uc.Products.Featured(ctx, FeaturedLimit)
}

func (uc *ProductUC) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	return uc.Products.Categories(ctx)
}

type ProductInput struct {
	Name        string          `json:"name" validate:"required,min=3"`
	Slug        string          `json:"slug" validate:"omitempty,min=3"`
	Category    string          `json:"category" validate:"required,min=3"`
	Brand       string          `json:"brand" validate:"required,min=3"`
	Description string          `json:"description" validate:"required,min=3"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Images      []string        `json:"images" validate:"min=1,dive,required"`
	IsFeatured  bool            `json:"isFeatured"`
	Banner      *string         `json:"banner"`
	Price       decimal.Decimal `json:"price"`
}

func (in ProductInput) check() error {
	if in.Price.IsNegative() || !in.Price.Equal(in.Price.Truncate(2)) {
		return domain.NewValidationError("price", "price must have exactly two decimal places (e.g. 49.99)")
	}
	return nil
}

func (in ProductInput) apply(p *domain.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Slug = in.Slug
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	p.Category = in.Category
	p.Brand = in.Brand
	p.Description = in.Description
	p.Stock = in.Stock
	p.Images = in.Images
	p.IsFeatured = in.IsFeatured
	p.Banner = in.Banner
	p.Price = in.Price
}

func (uc *ProductUC) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	p := &domain.Product{ID: uuid.New()}
	in.apply(p)
	if err := uc.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *ProductUC) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	p, err := uc.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := p.Slug
	in.apply(p)
	if err := uc.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	uc.invalidate(oldSlug, p.Slug)
	return p, nil
}

func (uc *ProductUC) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := uc.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.Products.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidate(p.Slug)
	return nil
}

func (uc *ProductUC) RemoveImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	p, err := uc.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img != imageURL {
			kept = append(kept, img)
		}
	}
	p.Images = kept
	if err := uc.Products.Save(ctx, p); err != nil {
		return err
	}
	uc.invalidate(p.Slug)
	return nil
}

func (uc *ProductUC) RemoveBanner(ctx context.Context, id uuid.UUID) error {
	p, err := uc.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.Banner = nil
	if err := uc.Products.Save(ctx, p); err != nil {
		return err
	}
	uc.invalidate(p.Slug)
	return nil
}

func (uc *ProductUC) invalidate(slugs ...string) {
	if uc.Pages == nil {
		return
	}
	for _, s := range slugs {
		if s != "" {
			uc.Pages.InvalidateProduct(s)
		}
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(s string) string {
	base := strings.ToLower(strings.TrimSpace(s))
	base = nonSlug.ReplaceAllString(base, "-")
	return strings.Trim(base, "-")
}

// isNotFound is shorthand used by the workflows below.
func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
