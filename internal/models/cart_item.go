package models

import "gorm.io/gorm"

// CartItem is a (user, product) pair with a quantity. The pair is unique; adding
// the same product again increases the quantity instead of creating a new row.
// Cart rows are destroyed on checkout when they become order items.
type CartItem struct {
	ID         string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string   `json:"user_id" gorm:"uniqueIndex:idx_cart_user_product;type:varchar(36)"`
	ProductID  string   `json:"product_id" gorm:"uniqueIndex:idx_cart_user_product;type:varchar(36)"`
	Quantity   int      `json:"quantity" validate:"required,gte=1"`
	Product    *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"` // current snapshot, not frozen
	gorm.Model
}
