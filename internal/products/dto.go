package products

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/media"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ImageView struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	AltText   *string   `json:"alt_text,omitempty"`
	Position  int       `json:"position"`
	IsPrimary bool      `json:"is_primary"`
}

type VariantView struct {
	ID             uuid.UUID        `json:"id"`
	ProductID      uuid.UUID        `json:"product_id"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Price          decimal.Decimal  `json:"price"`
	PriceFormatted string           `json:"price_formatted"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Currency       enums.Currency   `json:"currency"`
	Stock          int              `json:"stock"`
	InStock        bool             `json:"in_stock"`
	IsActive       bool             `json:"is_active"`
}

// ProductSummary is the list shape; PrimaryImageURL is already normalized.
type ProductSummary struct {
	ID                 uuid.UUID           `json:"id"`
	Name               string              `json:"name"`
	Slug               string              `json:"slug"`
	Description        *string             `json:"description,omitempty"`
	CategoryID         *uuid.UUID          `json:"category_id,omitempty"`
	BasePrice          decimal.Decimal     `json:"base_price"`
	BasePriceFormatted string              `json:"base_price_formatted"`
	CompareAtPrice     *decimal.Decimal    `json:"compare_at_price,omitempty"`
	Currency           enums.Currency      `json:"currency"`
	Status             enums.ProductStatus `json:"status"`
	IsFeatured         bool                `json:"is_featured"`
	PrimaryImageURL    *string             `json:"primary_image_url,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type ProductDetail struct {
	ProductSummary
	Variants []VariantView `json:"variants"`
	Images   []ImageView   `json:"images"`
}

type ListResult = types.ListEnvelope[ProductSummary]

func nullDecimalPtr(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

func toNullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

func toImageView(img models.ProductImage, mediaBase string) ImageView {
	return ImageView{
		ID:        img.ID,
		URL:       media.NormalizeURL(img.URL, mediaBase),
		AltText:   img.AltText,
		Position:  img.Position,
		IsPrimary: img.IsPrimary,
	}
}

func toVariantView(v models.ProductVariant) VariantView {
	return VariantView{
		ID:             v.ID,
		ProductID:      v.ProductID,
		SKU:            v.SKU,
		Name:           v.Name,
		Price:          v.Price,
		PriceFormatted: money.Format(v.Price, v.Currency),
		CompareAtPrice: nullDecimalPtr(v.CompareAtPrice),
		Currency:       v.Currency,
		Stock:          v.Stock,
		InStock:        v.Stock > 0,
		IsActive:       v.IsActive,
	}
}

// primaryImage picks the flagged image, else the first by position. Images arrive ordered.
func primaryImage(images []models.ProductImage) *models.ProductImage {
	for i := range images {
		if images[i].IsPrimary {
			return &images[i]
		}
	}
	if len(images) > 0 {
		return &images[0]
	}
	return nil
}

// Summarize builds the list view of p. Images must be loaded and ordered by position.
func Summarize(p models.Product, mediaBase string) ProductSummary {
	summary := ProductSummary{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		Description:        p.Description,
		CategoryID:         p.CategoryID,
		BasePrice:          p.BasePrice,
		BasePriceFormatted: money.Format(p.BasePrice, p.Currency),
		CompareAtPrice:     nullDecimalPtr(p.CompareAtPrice),
		Currency:           p.Currency,
		Status:             p.Status,
		IsFeatured:         p.IsFeatured,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if img := primaryImage(p.Images); img != nil {
		summary.PrimaryImageURL = media.NormalizePtr(&img.URL, mediaBase)
	}
	return summary
}

func toDetail(p models.Product, mediaBase string, activeVariantsOnly bool) *ProductDetail {
	detail := &ProductDetail{
		ProductSummary: Summarize(p, mediaBase),
		Variants:       make([]VariantView, 0, len(p.Variants)),
		Images:         make([]ImageView, 0, len(p.Images)),
	}
	for _, v := range p.Variants {
		if activeVariantsOnly && !v.IsActive {
			continue
		}
		detail.Variants = append(detail.Variants, toVariantView(v))
	}
	for _, img := range p.Images {
		detail.Images = append(detail.Images, toImageView(img, mediaBase))
	}
	return detail
}

// ProductInput is the admin create payload. Slug is derived from Name when empty.
type ProductInput struct {
	Name           string              `json:"name" validate:"required,max=200"`
	Slug           string              `json:"slug" validate:"omitempty,max=120"`
	Description    *string             `json:"description"`
	CategoryID     *uuid.UUID          `json:"category_id"`
	BasePrice      decimal.Decimal     `json:"base_price"`
	CompareAtPrice *decimal.Decimal    `json:"compare_at_price"`
	Currency       enums.Currency      `json:"currency"`
	Status         enums.ProductStatus `json:"status"`
	IsFeatured     bool                `json:"is_featured"`
}

// ProductUpdateInput is a partial update; nil fields are left alone.
type ProductUpdateInput struct {
	Name           *string              `json:"name" validate:"omitempty,min=1,max=200"`
	Slug           *string              `json:"slug" validate:"omitempty,min=1,max=120"`
	Description    *string              `json:"description"`
	CategoryID     *uuid.UUID           `json:"category_id"`
	BasePrice      *decimal.Decimal     `json:"base_price"`
	CompareAtPrice *decimal.Decimal     `json:"compare_at_price"`
	Currency       *enums.Currency      `json:"currency"`
	Status         *enums.ProductStatus `json:"status"`
	IsFeatured     *bool                `json:"is_featured"`
}

type VariantInput struct {
	SKU            string           `json:"sku" validate:"required,max=64"`
	Name           string           `json:"name" validate:"required,max=200"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Currency       enums.Currency   `json:"currency"`
	Stock          int              `json:"stock" validate:"min=0"`
	IsActive       *bool            `json:"is_active"`
}

type VariantUpdateInput struct {
	SKU            *string          `json:"sku" validate:"omitempty,min=1,max=64"`
	Name           *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Currency       *enums.Currency  `json:"currency"`
	Stock          *int             `json:"stock" validate:"omitempty,min=0"`
	IsActive       *bool            `json:"is_active"`
}

type ImageInput struct {
	URL       string  `json:"url" validate:"required,max=2048"`
	AltText   *string `json:"alt_text" validate:"omitempty,max=300"`
	IsPrimary bool    `json:"is_primary"`
}
