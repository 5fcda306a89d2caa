package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/phenrril/prostore/internal/domain"
)

type ReviewUC struct {
	Reviews  domain.ReviewRepo
	Products domain.ProductRepo
	Pages    domain.PageInvalidator
}

type ReviewInput struct {
	ProductID   uuid.UUID `json:"productId" validate:"required"`
	Rating      int       `json:"rating" validate:"required,min=1,max=5"`
	Title       string    `json:"title" validate:"required,min=3"`
	Description string    `json:"description" validate:"required,min=3"`
}

// CreateOrUpdate stores the caller's single review of a product and refreshes the product rating.
func (uc *ReviewUC) CreateOrUpdate(ctx context.Context, id *domain.Identity, in ReviewInput) (*domain.Review, error) {
	if id == nil {
		return nil, domain.ErrUnauthenticated
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, domain.NewValidationError("rating", "rating must be between 1 and 5")
	}
	p, err := uc.Products.FindByID(ctx, in.ProductID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("product")
		}
		return nil, err
	}
	r := &domain.Review{
		ID:                 uuid.New(),
		UserID:             id.UserID,
		ProductID:          p.ID,
		Rating:             in.Rating,
		Title:              in.Title,
		Description:        in.Description,
		IsVerifiedPurchase: true,
	}
	if err := uc.Reviews.Upsert(ctx, r); err != nil {
		return nil, err
	}
	if uc.Pages != nil {
		uc.Pages.InvalidateProduct(p.Slug)
	}
	return r, nil
}

func (uc *ReviewUC) ListForProduct(ctx context.Context, productID uuid.UUID) ([]domain.Review, error) {
	return uc.Reviews.ListByProduct(ctx, productID)
}

func (uc *ReviewUC) Mine(ctx context.Context, id *domain.Identity, productID uuid.UUID) (*domain.Review, error) {
	if id == nil {
		return nil, domain.ErrUnauthenticated
	}
	r, err := uc.Reviews.FindByUserAndProduct(ctx, id.UserID, productID)
	if isNotFound(err) {
		return nil, nil
	}
	return r, err
}
