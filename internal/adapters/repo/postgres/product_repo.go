package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/prostore/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return mapErr(r.db.WithContext(ctx).Save(p).Error, "slug")
}

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapErr(err, "product")
	}
	return &p, nil
}

func (r *ProductRepo) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, "slug = ?", slug).Error; err != nil {
		return nil, mapErr(err, "product")
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	var list []domain.Product
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if f.Query != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+strings.TrimSpace(f.Query)+"%")
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPrice != nil && f.MaxPrice != nil {
		q = q.Where("price >= ? AND price <= ?", *f.MinPrice, *f.MaxPrice)
	}
	if f.MinRating != nil {
		q = q.Where("rating >= ?", *f.MinRating)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	switch f.Sort {
	case domain.SortLowest:
		q = q.Order("price asc")
	case domain.SortHighest:
		q = q.Order("price desc")
	case domain.SortRating:
		q = q.Order("rating desc")
	default:
		q = q.Order("created_at desc")
	}
	if f.PageSize <= 0 {
		f.PageSize = 12
	}
	if err := q.Offset(offset(f.Page, f.PageSize)).Limit(f.PageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ProductRepo) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	var list []domain.Product
	if err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ProductRepo) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	var list []domain.Product
	if err := r.db.WithContext(ctx).Where("is_featured = ?", true).Order("created_at desc").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ProductRepo) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	cats := []domain.CategoryCount{}
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Select("category, COUNT(*) AS count").Group("category").Order("category asc").Scan(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("product")
	}
	return nil
}

func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&n).Error
	return n, err
}

// decrementStock takes qty units from a product only if that many are on hand.
func decrementStock(tx *gorm.DB, productID uuid.UUID, qty int) error {
	res := tx.Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}
