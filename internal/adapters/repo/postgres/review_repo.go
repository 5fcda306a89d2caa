package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/phenrril/prostore/internal/domain"
)

type ReviewRepo struct{ db *gorm.DB }

func NewReviewRepo(db *gorm.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Upsert updates the user's existing review of the product or creates one, then recomputes the
// product's rating and review count inside the same transaction.
func (r *ReviewRepo) Upsert(ctx context.Context, rv *domain.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Review
		err := tx.Where("product_id = ? AND user_id = ?", rv.ProductID, rv.UserID).First(&existing).Error
		switch {
		case err == nil:
			rv.ID = existing.ID
			rv.CreatedAt = existing.CreatedAt
			if err := tx.Model(&existing).Updates(map[string]any{
				"rating":      rv.Rating,
				"title":       rv.Title,
				"description": rv.Description,
			}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if rv.ID == uuid.Nil {
				rv.ID = uuid.New()
			}
			if err := tx.Omit("User").Create(rv).Error; err != nil {
				return err
			}
		default:
			return err
		}

		var agg struct {
			Avg   decimal.NullDecimal
			Count int64
		}
		if err := tx.Model(&domain.Review{}).Where("product_id = ?", rv.ProductID).
			Select("AVG(rating) AS avg, COUNT(*) AS count").Scan(&agg).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Product{}).Where("id = ?", rv.ProductID).UpdateColumns(map[string]any{
			"rating":      agg.Avg.Decimal.Round(2),
			"num_reviews": agg.Count,
		}).Error
	})
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Review, error) {
	list := []domain.Review{}
	err := r.db.WithContext(ctx).Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Where("product_id = ?", productID).Order("created_at desc").Find(&list).Error
	return list, err
}

func (r *ReviewRepo) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.WithContext(ctx).First(&rv, "product_id = ? AND user_id = ?", productID, userID).Error; err != nil {
		return nil, mapErr(err, "review")
	}
	return &rv, nil
}
