package domain

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_product" json:"userId"`
	User               *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ProductID          uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_reviews_user_product" json:"productId"`
	Rating             int       `gorm:"not null" json:"rating"`
	Title              string    `gorm:"size:180" json:"title"`
	Description        string    `gorm:"type:text" json:"description"`
	IsVerifiedPurchase bool      `gorm:"not null;default:true" json:"isVerifiedPurchase"`
	CreatedAt          time.Time `json:"createdAt"`
}
