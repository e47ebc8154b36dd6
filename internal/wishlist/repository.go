package wishlist

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns the user's saved products, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WishlistItem, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.WishlistItem{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Add is a no-op when the product is already saved.
func (r *Repository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Omit("Product").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item).Error
}

func (r *Repository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	return count > 0, err
}
