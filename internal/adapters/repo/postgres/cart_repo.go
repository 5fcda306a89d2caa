package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/prostore/internal/domain"
)

type CartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) *CartRepo { return &CartRepo{db: db} }

func ownerScope(owner domain.CartOwner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.UserID != nil {
			return db.Where("user_id = ?", *owner.UserID)
		}
		return db.Where("session_cart_id = ?", owner.SessionCartID)
	}
}

func (r *CartRepo) FindByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	var c domain.Cart
	if err := r.db.WithContext(ctx).Scopes(ownerScope(owner)).Order("updated_at desc").First(&c).Error; err != nil {
		return nil, mapErr(err, "cart")
	}
	return &c, nil
}

func (r *CartRepo) Mutate(ctx context.Context, owner domain.CartOwner, fn domain.CartMutation) (*domain.Cart, error) {
	var out *domain.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.Cart
		var arg *domain.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Scopes(ownerScope(owner)).Order("updated_at desc").First(&cur).Error
		switch {
		case err == nil:
			arg = &cur
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}
		next, err := fn(arg)
		if err != nil {
			return err
		}
		if next.ID == uuid.Nil {
			next.ID = uuid.New()
		}
		if err := tx.Save(next).Error; err != nil {
			return mapErr(err, "cart")
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BindToUser hands the session cart to the user. A non-empty session cart replaces whatever cart the
// user had; the replaced cart keeps only its session binding.
func (r *CartRepo) BindToUser(ctx context.Context, sessionCartID string, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sc domain.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sc, "session_cart_id = ?", sessionCartID).Error; err != nil {
			return mapErr(err, "cart")
		}
		if sc.UserID != nil && *sc.UserID == userID {
			return nil
		}
		if len(sc.Items) == 0 {
			var n int64
			if err := tx.Model(&domain.Cart{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return nil
			}
		}
		if err := tx.Model(&domain.Cart{}).Where("user_id = ? AND id <> ?", userID, sc.ID).Update("user_id", nil).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Cart{}).Where("id = ?", sc.ID).Update("user_id", userID).Error
	})
}
