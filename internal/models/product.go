package models

import "gorm.io/gorm"

// Product represents a secondhand listing. PriceCents is integer centavos so
// cart and order arithmetic never drifts.
type Product struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Category    string `json:"category" validate:"required,max=50"`
	Stock       int    `json:"stock" validate:"gte=0"`
	SellerID    string `json:"seller_id" gorm:"index;type:varchar(36)"`
	gorm.Model         // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
