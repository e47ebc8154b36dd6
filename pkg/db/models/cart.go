package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is a user's basket. At most one row per user has IsActive set.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index:carts_user_id_idx"`
	IsActive  bool       `gorm:"column:is_active;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	Items     []CartItem `gorm:"foreignKey:CartID"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CartItem holds the catalog snapshot taken when the variant was first added.
type CartItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID      uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:cart_items_cart_variant_key"`
	VariantID   uuid.UUID       `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:cart_items_cart_variant_key"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Currency    enums.Currency  `gorm:"column:currency;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	SKU         string          `gorm:"column:sku;not null"`
	ImageURL    *string         `gorm:"column:image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
