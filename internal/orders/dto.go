package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput asks for quantity units of a variant; everything else is copied from the catalog.
type LineInput struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

// Aggregates are supplied by the caller. No tax or shipping engine runs here.
type Aggregates struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type CreateInput struct {
	UserID          uuid.UUID              `json:"user_id" validate:"required"`
	Lines           []LineInput            `json:"items" validate:"required,min=1,dive"`
	Currency        enums.Currency         `json:"currency"`
	ShippingAddress *types.AddressSnapshot `json:"shipping_address"`
	BillingAddress  *types.AddressSnapshot `json:"billing_address"`
	Notes           *string                `json:"notes" validate:"omitempty,max=2000"`
	PaymentStatus   enums.PaymentStatus    `json:"payment_status"`
	Aggregates
}

// UpdateInput is the admin patch. Nil fields are left alone.
type UpdateInput struct {
	Status        *enums.OrderStatus   `json:"status"`
	PaymentStatus *enums.PaymentStatus `json:"payment_status"`
	Subtotal      *decimal.Decimal     `json:"subtotal"`
	Tax           *decimal.Decimal     `json:"tax"`
	Shipping      *decimal.Decimal     `json:"shipping"`
	Discount      *decimal.Decimal     `json:"discount"`
	Total         *decimal.Decimal     `json:"total"`
	Notes         *string              `json:"notes" validate:"omitempty,max=2000"`
}

type ItemView struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	ImageURL    *string         `json:"image_url,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Currency    enums.Currency  `json:"currency"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type View struct {
	ID              uuid.UUID              `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	UserID          uuid.UUID              `json:"user_id"`
	Status          enums.OrderStatus      `json:"status"`
	PaymentStatus   enums.PaymentStatus    `json:"payment_status"`
	Currency        enums.Currency         `json:"currency"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	Tax             decimal.Decimal        `json:"tax"`
	Shipping        decimal.Decimal        `json:"shipping"`
	Discount        decimal.Decimal        `json:"discount"`
	Total           decimal.Decimal        `json:"total"`
	TotalFormatted  string                 `json:"total_formatted"`
	ItemCount       int                    `json:"item_count"`
	ShippingAddress *types.AddressSnapshot `json:"shipping_address,omitempty"`
	BillingAddress  *types.AddressSnapshot `json:"billing_address,omitempty"`
	Notes           *string                `json:"notes,omitempty"`
	Items           []ItemView             `json:"items"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type ListResult = types.ListEnvelope[View]

func ToView(o models.Order) View {
	view := View{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		Currency:        o.Currency,
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Shipping:        o.Shipping,
		Discount:        o.Discount,
		Total:           o.Total,
		TotalFormatted:  money.Format(o.Total, o.Currency),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Notes:           o.Notes,
		Items:           make([]ItemView, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		view.ItemCount += item.Quantity
		view.Items = append(view.Items, ItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			ImageURL:    item.ImageURL,
			UnitPrice:   item.UnitPrice,
			Currency:    item.Currency,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}
	return view
}
