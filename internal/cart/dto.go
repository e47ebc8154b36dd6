package cart

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemInput is validated by the service; Quantity below 1 is rejected.
type AddItemInput struct {
	VariantID uuid.UUID
	Quantity  int
}

type ItemView struct {
	ID                 uuid.UUID       `json:"id"`
	VariantID          uuid.UUID       `json:"variant_id"`
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	SKU                string          `json:"sku"`
	ImageURL           *string         `json:"image_url,omitempty"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Currency           enums.Currency  `json:"currency"`
	LineTotal          decimal.Decimal `json:"line_total"`
	LineTotalFormatted string          `json:"line_total_formatted"`
}

// CartView totals come from the stored snapshots, never from live catalog prices.
type CartView struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"user_id"`
	IsActive          bool            `json:"is_active"`
	Items             []ItemView      `json:"items"`
	ItemCount         int             `json:"item_count"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	SubtotalFormatted string          `json:"subtotal_formatted"`
	Currency          enums.Currency  `json:"currency"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func toView(cart *models.Cart) *CartView {
	view := &CartView{
		ID:        cart.ID,
		UserID:    cart.UserID,
		IsActive:  cart.IsActive,
		Items:     make([]ItemView, 0, len(cart.Items)),
		Subtotal:  decimal.Zero,
		Currency:  enums.DefaultCurrency,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for i, item := range cart.Items {
		if i == 0 {
			view.Currency = item.Currency
		}
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, ItemView{
			ID:                 item.ID,
			VariantID:          item.VariantID,
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			SKU:                item.SKU,
			ImageURL:           item.ImageURL,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			Currency:           item.Currency,
			LineTotal:          line,
			LineTotalFormatted: money.Format(line, item.Currency),
		})
		view.ItemCount += item.Quantity
		view.Subtotal = view.Subtotal.Add(line)
	}
	view.SubtotalFormatted = money.Format(view.Subtotal, view.Currency)
	return view
}
