package products

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/media"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VariantSnapshot is the catalog state cart and order lines copy at write time.
type VariantSnapshot struct {
	VariantID   uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	SKU         string
	Price       decimal.Decimal
	Currency    enums.Currency
	Stock       int
	// Purchasable is false for inactive variants and non-active products.
	Purchasable bool
}

// CatalogReader is the catalog surface the cart, orders and checkout depend on.
type CatalogReader interface {
	WithTx(tx *gorm.DB) CatalogReader
	GetVariant(ctx context.Context, id uuid.UUID) (*VariantSnapshot, error)
	GetPrimaryImage(ctx context.Context, productID uuid.UUID) (*string, error)
	DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error
}

// Catalog implements CatalogReader over the products tables.
type Catalog struct {
	db           *gorm.DB
	mediaBaseURL string
}

func NewCatalog(db *gorm.DB, mediaBaseURL string) *Catalog {
	return &Catalog{db: db, mediaBaseURL: mediaBaseURL}
}

func (c *Catalog) WithTx(tx *gorm.DB) CatalogReader {
	if tx == nil {
		return c
	}
	return &Catalog{db: tx, mediaBaseURL: c.mediaBaseURL}
}

// GetVariant resolves a variant and the product fields a snapshot needs.
func (c *Catalog) GetVariant(ctx context.Context, id uuid.UUID) (*VariantSnapshot, error) {
	var variant models.ProductVariant
	err := c.db.WithContext(ctx).Preload("Product").Where("id = ?", id).First(&variant).Error
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
	}
	if variant.Product == nil {
		return nil, pkgerrors.NotFound("variant")
	}

	return &VariantSnapshot{
		VariantID:   variant.ID,
		ProductID:   variant.ProductID,
		ProductName: displayName(variant.Product.Name, variant.Name),
		SKU:         variant.SKU,
		Price:       variant.Price,
		Currency:    variant.Currency,
		Stock:       variant.Stock,
		Purchasable: variant.IsActive && variant.Product.Status == enums.ProductStatusActive,
	}, nil
}

// GetPrimaryImage returns the normalized URL of the primary image, falling back
// to the first image by position. Nil when the product has no images.
func (c *Catalog) GetPrimaryImage(ctx context.Context, productID uuid.UUID) (*string, error) {
	var images []models.ProductImage
	err := c.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("is_primary DESC").
		Order("position ASC").
		Limit(1).
		Find(&images).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load primary image")
	}
	if len(images) == 0 {
		return nil, nil
	}
	return media.NormalizePtr(&images[0].URL, c.mediaBaseURL), nil
}

// DecrementStock takes qty units in one conditional update, so stock never goes negative.
func (c *Catalog) DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	res := c.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"variant_id": variantID.String(), "requested": qty})
	}
	return nil
}

func displayName(product, variant string) string {
	if variant == "" || variant == product {
		return product
	}
	return product + " - " + variant
}
