package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/slug"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the storefront catalog reads and the admin product CRUD.
type Service interface {
	List(ctx context.Context, filters Filters, page pagination.Page) (*ListResult, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDetail, error)

	AdminList(ctx context.Context, filters Filters, page pagination.Page) (*ListResult, error)
	AdminGet(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	Create(ctx context.Context, input ProductInput) (*ProductDetail, error)
	Update(ctx context.Context, id uuid.UUID, input ProductUpdateInput) (*ProductDetail, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*VariantView, error)
	UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input VariantUpdateInput) (*VariantView, error)
	DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error

	AddImage(ctx context.Context, productID uuid.UUID, input ImageInput) (*ImageView, error)
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error
	SetPrimaryImage(ctx context.Context, productID, imageID uuid.UUID) (*ProductDetail, error)
}

type ServiceParams struct {
	Repo         *Repository
	Tx           txRunner
	MediaBaseURL string
}

type service struct {
	repo      *Repository
	tx        txRunner
	mediaBase string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: params.Repo, tx: params.Tx, mediaBase: params.MediaBaseURL}, nil
}

func (s *service) List(ctx context.Context, filters Filters, page pagination.Page) (*ListResult, error) {
	return s.list(ctx, listQuery{Filters: filters, ActiveOnly: true}, page)
}

func (s *service) AdminList(ctx context.Context, filters Filters, page pagination.Page) (*ListResult, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	return s.list(ctx, listQuery{Filters: filters}, page)
}

func (s *service) list(ctx context.Context, q listQuery, page pagination.Page) (*ListResult, error) {
	page = page.Normalize()
	q.Limit = page.Limit()
	q.Offset = page.Offset()

	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	items := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, Summarize(row, s.mediaBase))
	}
	return &ListResult{Items: items, Page: page.Page, PerPage: page.PerPage, Total: total}, nil
}

// GetBySlug hides non-active products and inactive variants from the storefront.
func (s *service) GetBySlug(ctx context.Context, productSlug string) (*ProductDetail, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(productSlug))
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.NotFound("product")
	}
	return toDetail(*product, s.mediaBase, true), nil
}

func (s *service) AdminGet(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	return s.detail(ctx, s.repo, id)
}

func (s *service) detail(ctx context.Context, repo *Repository, id uuid.UUID) (*ProductDetail, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}
	return toDetail(*product, s.mediaBase, false), nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDetail, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	currency, err := currencyOrDefault(input.Currency)
	if err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = enums.ProductStatusDraft
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	if err := validatePrices(input.BasePrice, input.CompareAtPrice); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:           name,
		Description:    input.Description,
		CategoryID:     input.CategoryID,
		BasePrice:      input.BasePrice,
		CompareAtPrice: toNullDecimal(input.CompareAtPrice),
		Currency:       currency,
		Status:         status,
		IsFeatured:     input.IsFeatured,
	}

	var out *ProductDetail
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productSlug, err := s.resolveSlug(ctx, repo, input.Slug, name, uuid.Nil)
		if err != nil {
			return err
		}
		product.Slug = productSlug
		if err := repo.Create(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
		}
		out, err = s.detail(ctx, repo, product.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductUpdateInput) (*ProductDetail, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.BasePrice != nil {
		if err := validatePrices(*input.BasePrice, input.CompareAtPrice); err != nil {
			return nil, err
		}
		updates["base_price"] = *input.BasePrice
	}
	if input.CompareAtPrice != nil {
		if input.CompareAtPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "compare_at_price must be non-negative")
		}
		updates["compare_at_price"] = *input.CompareAtPrice
	}
	if input.Currency != nil {
		currency, err := enums.ParseCurrency(string(*input.Currency))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		updates["currency"] = currency
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
		}
		updates["status"] = *input.Status
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}

	var out *ProductDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.Slug != nil {
			candidate := slug.Make(*input.Slug)
			if candidate == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "slug is invalid")
			}
			taken, err := repo.SlugTaken(ctx, candidate, id)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check slug")
			}
			if taken {
				return pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
			}
			updates["slug"] = candidate
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return notFoundOr(err, "product not found", "update product")
		}
		var err error
		out, err = s.detail(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return notFoundOr(err, "product not found", "delete product")
		}
		return nil
	})
}

func (s *service) CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*VariantView, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku and name are required")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	if err := validatePrices(input.Price, input.CompareAtPrice); err != nil {
		return nil, err
	}

	variant := &models.ProductVariant{
		ProductID:      productID,
		SKU:            sku,
		Name:           name,
		Price:          input.Price,
		CompareAtPrice: toNullDecimal(input.CompareAtPrice),
		Stock:          input.Stock,
		IsActive:       input.IsActive == nil || *input.IsActive,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product not found", "load product")
		}
		variant.Currency = product.Currency
		if input.Currency != "" {
			currency, err := enums.ParseCurrency(string(input.Currency))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
			}
			variant.Currency = currency
		}
		if err := ensureSKUFree(ctx, repo, sku, uuid.Nil); err != nil {
			return err
		}
		if err := repo.CreateVariant(ctx, variant); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create variant")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := toVariantView(*variant)
	return &view, nil
}

func (s *service) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input VariantUpdateInput) (*VariantView, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Price != nil {
		if err := validatePrices(*input.Price, input.CompareAtPrice); err != nil {
			return nil, err
		}
		updates["price"] = *input.Price
	}
	if input.CompareAtPrice != nil {
		if input.CompareAtPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "compare_at_price must be non-negative")
		}
		updates["compare_at_price"] = *input.CompareAtPrice
	}
	if input.Currency != nil {
		currency, err := enums.ParseCurrency(string(*input.Currency))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		updates["currency"] = currency
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	var out *models.ProductVariant
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.SKU != nil {
			sku := strings.TrimSpace(*input.SKU)
			if sku == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "sku cannot be empty")
			}
			if err := ensureSKUFree(ctx, repo, sku, variantID); err != nil {
				return err
			}
			updates["sku"] = sku
		}
		if err := repo.UpdateVariant(ctx, productID, variantID, updates); err != nil {
			return notFoundOr(err, "variant not found", "update variant")
		}
		var err error
		out, err = repo.FindVariant(ctx, productID, variantID)
		if err != nil {
			return notFoundOr(err, "variant not found", "load variant")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := toVariantView(*out)
	return &view, nil
}

func (s *service) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).DeleteVariant(ctx, productID, variantID); err != nil {
			return notFoundOr(err, "variant not found", "delete variant")
		}
		return nil
	})
}

// AddImage appends at the next position. The first image of a product becomes primary.
func (s *service) AddImage(ctx context.Context, productID uuid.UUID, input ImageInput) (*ImageView, error) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "url is required")
	}
	image := &models.ProductImage{ProductID: productID, URL: url, AltText: input.AltText}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.exists(ctx, &models.Product{}, "id = ?", productID); err != nil {
			return notFoundOr(err, "product not found", "load product")
		}
		count, err := repo.CountImages(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count images")
		}
		position, err := repo.NextImagePosition(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "image position")
		}
		image.Position = position
		if err := repo.CreateImage(ctx, image); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create image")
		}
		if input.IsPrimary || count == 0 {
			if err := repo.SetPrimaryImage(ctx, productID, image.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set primary image")
			}
			image.IsPrimary = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := toImageView(*image, s.mediaBase)
	return &view, nil
}

func (s *service) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).DeleteImage(ctx, productID, imageID); err != nil {
			return notFoundOr(err, "image not found", "delete image")
		}
		return nil
	})
}

func (s *service) SetPrimaryImage(ctx context.Context, productID, imageID uuid.UUID) (*ProductDetail, error) {
	var out *ProductDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SetPrimaryImage(ctx, productID, imageID); err != nil {
			return notFoundOr(err, "image not found", "set primary image")
		}
		var err error
		out, err = s.detail(ctx, repo, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolveSlug honours an explicit slug (409 when taken) and otherwise derives a free one from name.
func (s *service) resolveSlug(ctx context.Context, repo *Repository, requested, name string, exclude uuid.UUID) (string, error) {
	taken := func(ctx context.Context, candidate string) (bool, error) {
		return repo.SlugTaken(ctx, candidate, exclude)
	}
	if strings.TrimSpace(requested) != "" {
		candidate := slug.Make(requested)
		if candidate == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "slug is invalid")
		}
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check slug")
		}
		if exists {
			return "", pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return candidate, nil
	}
	base := slug.Make(name)
	if base == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must contain letters or digits")
	}
	out, err := slug.Unique(ctx, base, taken)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate slug")
	}
	return out, nil
}

func ensureSKUFree(ctx context.Context, repo *Repository, sku string, exclude uuid.UUID) error {
	taken, err := repo.SKUTaken(ctx, sku, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check sku")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
	}
	return nil
}

func currencyOrDefault(c enums.Currency) (enums.Currency, error) {
	if c == "" {
		return enums.DefaultCurrency, nil
	}
	parsed, err := enums.ParseCurrency(string(c))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	return parsed, nil
}

func validatePrices(price decimal.Decimal, compareAt *decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if compareAt != nil && compareAt.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "compare_at_price must be non-negative")
	}
	return nil
}

func notFoundOr(err error, notFoundMsg, internalMsg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if isNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, internalMsg)
}
