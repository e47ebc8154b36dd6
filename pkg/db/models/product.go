package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the catalog entry; sellable units live in ProductVariant.
type Product struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string              `gorm:"column:name;not null"`
	Slug           string              `gorm:"column:slug;not null;uniqueIndex:products_slug_key"`
	Description    *string             `gorm:"column:description"`
	CategoryID     *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	BasePrice      decimal.Decimal     `gorm:"column:base_price;type:numeric(12,2);not null"`
	CompareAtPrice decimal.NullDecimal `gorm:"column:compare_at_price;type:numeric(12,2)"`
	Currency       enums.Currency      `gorm:"column:currency;not null"`
	Status         enums.ProductStatus `gorm:"column:status;not null"`
	IsFeatured     bool                `gorm:"column:is_featured;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
	Images   []ProductImage   `gorm:"foreignKey:ProductID"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVariant is the unit a cart line points at. Stock is the ceiling for cart quantities.
type ProductVariant struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index:product_variants_product_id_idx"`
	SKU            string              `gorm:"column:sku;not null;uniqueIndex:product_variants_sku_key"`
	Name           string              `gorm:"column:name;not null"`
	Price          decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	CompareAtPrice decimal.NullDecimal `gorm:"column:compare_at_price;type:numeric(12,2)"`
	Currency       enums.Currency      `gorm:"column:currency;not null"`
	Stock          int                 `gorm:"column:stock;not null"`
	IsActive       bool                `gorm:"column:is_active;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:product_images_product_id_idx"`
	URL       string    `gorm:"column:url;not null"`
	AltText   *string   `gorm:"column:alt_text"`
	Position  int       `gorm:"column:position;not null"`
	IsPrimary bool      `gorm:"column:is_primary;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
