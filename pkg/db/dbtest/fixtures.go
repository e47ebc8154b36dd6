package dbtest

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// VariantOpts describes a seeded product with a single variant.
type VariantOpts struct {
	ProductName   string
	VariantName   string
	SKU           string
	Price         string
	Stock         int
	Inactive      bool
	ProductStatus enums.ProductStatus
	ImageURL      string
}

// SeedVariant inserts a product, one variant and optionally a primary image.
func SeedVariant(t *testing.T, db *gorm.DB, opts VariantOpts) (*models.Product, *models.ProductVariant) {
	t.Helper()

	if opts.ProductName == "" {
		opts.ProductName = "Canvas Tote"
	}
	if opts.SKU == "" {
		opts.SKU = "SKU-" + uuid.NewString()[:8]
	}
	if opts.Price == "" {
		opts.Price = "10.00"
	}
	if opts.ProductStatus == "" {
		opts.ProductStatus = enums.ProductStatusActive
	}
	price := decimal.RequireFromString(opts.Price)

	product := &models.Product{
		Name:      opts.ProductName,
		Slug:      "p-" + uuid.NewString(),
		BasePrice: price,
		Currency:  enums.CurrencyUSD,
		Status:    opts.ProductStatus,
	}
	require.NoError(t, db.Omit("Variants", "Images").Create(product).Error)

	variant := &models.ProductVariant{
		ProductID: product.ID,
		SKU:       opts.SKU,
		Name:      opts.VariantName,
		Price:     price,
		Currency:  enums.CurrencyUSD,
		Stock:     opts.Stock,
		IsActive:  !opts.Inactive,
	}
	require.NoError(t, db.Omit("Product").Create(variant).Error)

	if opts.ImageURL != "" {
		image := &models.ProductImage{ProductID: product.ID, URL: opts.ImageURL, IsPrimary: true}
		require.NoError(t, db.Create(image).Error)
	}
	return product, variant
}

// SeedProfile inserts a profile row for userID.
func SeedProfile(t *testing.T, db *gorm.DB, userID uuid.UUID, email string) *models.Profile {
	t.Helper()
	profile := &models.Profile{ID: userID, Email: email}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

// Count returns the row count of table.
func Count(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

// SeedOrder inserts an item-less order carrying only the given total.
func SeedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, total string, payment enums.PaymentStatus) *models.Order {
	t.Helper()
	amount := decimal.RequireFromString(total)
	order := &models.Order{
		OrderNumber:   "T-" + uuid.NewString()[:12],
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		PaymentStatus: payment,
		Currency:      enums.CurrencyUSD,
		Subtotal:      amount,
		Tax:           decimal.Zero,
		Shipping:      decimal.Zero,
		Discount:      decimal.Zero,
		Total:         amount,
	}
	require.NoError(t, db.Omit("Items").Create(order).Error)
	return order
}
