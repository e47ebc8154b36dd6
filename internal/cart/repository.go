package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository is the persistence surface the cart service needs.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	CreateActive(ctx context.Context, userID uuid.UUID) (bool, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, uuid.UUID, error)
	FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	InsertItem(ctx context.Context, item *models.CartItem) (bool, error)
	MergeQuantity(ctx context.Context, itemID, variantID uuid.UUID, delta int) (bool, error)
	SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	Touch(ctx context.Context, cartID uuid.UUID) error
	Deactivate(ctx context.Context, cartID uuid.UUID) error
}

// Repository implements CartRepository with gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActive loads the user's active cart with items in insertion order.
func (r *Repository) FindActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateActive inserts an active cart unless one already exists; false means another
// writer won the race and the caller should re-read.
func (r *Repository) CreateActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	cart := &models.Cart{UserID: userID, IsActive: true}
	res := r.db.WithContext(ctx).
		Omit("Items").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(cart)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindItem returns the item and the user id owning its cart.
func (r *Repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, uuid.UUID, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, uuid.Nil, err
	}
	var cart models.Cart
	if err := r.db.WithContext(ctx).Select("id", "user_id").Where("id = ?", item.CartID).First(&cart).Error; err != nil {
		return nil, uuid.Nil, err
	}
	return &item, cart.UserID, nil
}

func (r *Repository) FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND variant_id = ?", cartID, variantID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertItem inserts a new line. False means a line for the same variant already
// exists in the cart.
func (r *Repository) InsertItem(ctx context.Context, item *models.CartItem) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MergeQuantity adds delta to the line only when the new total stays within the
// variant's current stock. False means the ceiling would be exceeded.
func (r *Repository) MergeQuantity(ctx context.Context, itemID, variantID uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Where("quantity + ? <= (SELECT stock FROM product_variants WHERE id = ?)", delta, variantID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// Touch bumps the cart's updated_at.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		UpdateColumn("updated_at", time.Now().UTC()).Error
}

// Deactivate retires a cart once it has been converted into an order.
func (r *Repository) Deactivate(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()}).Error
}
