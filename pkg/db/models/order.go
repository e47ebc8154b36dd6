package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order aggregates are supplied by the caller; this layer never computes tax or shipping.
type Order struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string                 `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	UserID          uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	Status          enums.OrderStatus      `gorm:"column:status;not null"`
	PaymentStatus   enums.PaymentStatus    `gorm:"column:payment_status;not null"`
	Currency        enums.Currency         `gorm:"column:currency;not null"`
	Subtotal        decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax             decimal.Decimal        `gorm:"column:tax;type:numeric(12,2);not null"`
	Shipping        decimal.Decimal        `gorm:"column:shipping;type:numeric(12,2);not null"`
	Discount        decimal.Decimal        `gorm:"column:discount;type:numeric(12,2);not null"`
	Total           decimal.Decimal        `gorm:"column:total;type:numeric(12,2);not null"`
	ShippingAddress *types.AddressSnapshot `gorm:"column:shipping_address;type:jsonb"`
	BillingAddress  *types.AddressSnapshot `gorm:"column:billing_address;type:jsonb"`
	Notes           *string                `gorm:"column:notes"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is an immutable copy of the catalog line at order time.
// Product and variant ids are kept for reference only and may dangle.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	ProductID   *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	VariantID   *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	ProductName string          `gorm:"column:product_name;not null"`
	SKU         string          `gorm:"column:sku;not null"`
	ImageURL    *string         `gorm:"column:image_url"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Currency    enums.Currency  `gorm:"column:currency;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
