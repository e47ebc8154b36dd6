package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WishlistItem links a user to a saved product.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:wishlist_items_user_product_key"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:wishlist_items_user_product_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (w *WishlistItem) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}
