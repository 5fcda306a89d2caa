package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string           `gorm:"size:140;not null;default:'NO_NAME'" json:"name"`
	Email         string           `gorm:"size:140;uniqueIndex;not null" json:"email"`
	PasswordHash  string           `gorm:"size:100" json:"-"`
	Role          Role             `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Address       *ShippingAddress `gorm:"type:jsonb;serializer:json" json:"address,omitempty"`
	PaymentMethod PaymentMethod    `gorm:"type:varchar(30)" json:"paymentMethod,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

type ShippingAddress struct {
	FullName      string   `json:"fullName" validate:"required,min=3"`
	StreetAddress string   `json:"streetAddress" validate:"required,min=3"`
	City          string   `json:"city" validate:"required,min=3"`
	PostalCode    string   `json:"postalCode" validate:"required,min=3"`
	Country       string   `json:"country" validate:"required,min=3"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   Role
}

func (i *Identity) IsAdmin() bool { return i != nil && i.Role == RoleAdmin }
