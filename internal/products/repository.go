package products

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists products, variants and images.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Filters narrows product listings. Zero values mean "no filter".
type Filters struct {
	CategorySlug   string
	CollectionSlug string
	Search         string
	Featured       *bool
	Status         enums.ProductStatus
}

type listQuery struct {
	Filters
	ActiveOnly bool
	Limit      int
	Offset     int
}

func (q listQuery) apply(db *gorm.DB) *gorm.DB {
	if q.ActiveOnly {
		db = db.Where("products.status = ?", enums.ProductStatusActive)
	} else if q.Status != "" {
		db = db.Where("products.status = ?", q.Status)
	}
	if q.CategorySlug != "" {
		db = db.Where("products.category_id IN (SELECT id FROM categories WHERE slug = ?)", q.CategorySlug)
	}
	if q.CollectionSlug != "" {
		db = db.Where(`products.id IN (
			SELECT cp.product_id FROM collection_products cp
			JOIN collections c ON c.id = cp.collection_id
			WHERE c.slug = ?)`, q.CollectionSlug)
	}
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		like := "%" + term + "%"
		db = db.Where("(LOWER(products.name) LIKE ? OR LOWER(products.slug) LIKE ?)", like, like)
	}
	if q.Featured != nil {
		db = db.Where("products.is_featured = ?", *q.Featured)
	}
	return db
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC")
}

func orderedVariants(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// List returns one page of products plus the total matching count.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(q.apply).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := r.db.WithContext(ctx).
		Scopes(q.apply).
		Preload("Images", orderedImages).
		Order("products.created_at DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindByID loads a product with its variants and images.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", orderedVariants).
		Preload("Images", orderedImages).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads a product by slug with its variants and images.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", orderedVariants).
		Preload("Images", orderedImages).
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SlugTaken reports whether another product already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Variants", "Images").Create(product).Error
}

// Update applies column updates; gorm.ErrRecordNotFound when the product is missing.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return r.exists(ctx, &models.Product{}, "id = ?", id)
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the product and its dependent rows. Order items keep their snapshot.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if err := db.Where("product_id = ?", id).Delete(&models.CollectionProduct{}).Error; err != nil {
		return err
	}
	if err := db.Where("product_id = ?", id).Delete(&models.WishlistItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Omit("Product").Create(variant).Error
}

func (r *Repository) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *Repository) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return r.exists(ctx, &models.ProductVariant{}, "id = ? AND product_id = ?", variantID, productID)
	}
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND product_id = ?", variantID, productID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteVariant drops the variant and any cart lines pointing at it.
func (r *Repository) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	res := db.Where("id = ? AND product_id = ?", variantID, productID).Delete(&models.ProductVariant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return db.Where("variant_id = ?", variantID).Delete(&models.CartItem{}).Error
}

func (r *Repository) SKUTaken(ctx context.Context, sku string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.ProductVariant{}).Where("sku = ?", sku)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CreateImage(ctx context.Context, image *models.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// NextImagePosition returns one past the highest image position for the product.
func (r *Repository) NextImagePosition(ctx context.Context, productID uuid.UUID) (int, error) {
	var maxPos sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Select("MAX(position)").
		Where("product_id = ?", productID).
		Row().
		Scan(&maxPos)
	if err != nil {
		return 0, err
	}
	if !maxPos.Valid {
		return 0, nil
	}
	return int(maxPos.Int64) + 1, nil
}

func (r *Repository) CountImages(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductImage{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

func (r *Repository) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND product_id = ?", imageID, productID).Delete(&models.ProductImage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetPrimaryImage clears the product's current primary image then flags imageID.
// Callers run it inside a transaction.
func (r *Repository) SetPrimaryImage(ctx context.Context, productID, imageID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := r.exists(ctx, &models.ProductImage{}, "id = ? AND product_id = ?", imageID, productID); err != nil {
		return err
	}
	if err := db.Model(&models.ProductImage{}).
		Where("product_id = ? AND is_primary = ? AND id <> ?", productID, true, imageID).
		Update("is_primary", false).Error; err != nil {
		return err
	}
	return db.Model(&models.ProductImage{}).
		Where("id = ? AND product_id = ?", imageID, productID).
		Update("is_primary", true).Error
}

func (r *Repository) exists(ctx context.Context, model any, query string, args ...any) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
