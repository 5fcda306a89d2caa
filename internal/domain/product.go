package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"size:180;not null" json:"name"`
	Slug        string          `gorm:"size:180;uniqueIndex;not null" json:"slug"`
	Category    string          `gorm:"size:100;index" json:"category"`
	Brand       string          `gorm:"size:100" json:"brand"`
	Description string          `gorm:"type:text" json:"description"`
	Images      []string        `gorm:"type:jsonb;serializer:json" json:"images"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	Rating      decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0" json:"rating"`
	NumReviews  int             `gorm:"not null;default:0" json:"numReviews"`
	IsFeatured  bool            `gorm:"not null;default:false;index" json:"isFeatured"`
	Banner      *string         `gorm:"size:255" json:"banner"`
	CreatedAt   time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Sort keys accepted by ProductFilter.Sort.
const (
	SortNewest  = "newest"
	SortLowest  = "lowest"
	SortHighest = "highest"
	SortRating  = "rating"
)

// ProductFilter is the parsed form of a catalog query. Nil pointers disable a filter.
type ProductFilter struct {
	Query     string
	Category  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *decimal.Decimal
	Sort      string
	Page      int
	PageSize  int
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}
