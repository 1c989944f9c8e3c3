package models

import "gorm.io/gorm"

// User represents a marketplace account. Sellers are ordinary users with the
// IsSeller flag set; orders reference users, so accounts are never hard-deleted.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"` // bcrypt hash, never serialized
	IsSeller   bool   `json:"is_seller"`
	IsAdmin    bool   `json:"is_admin" gorm:"default:false"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
