package orders

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Filters narrow the admin order list.
type Filters struct {
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
	UserID        uuid.UUID
	Search        string
}

func (f Filters) apply(db *gorm.DB) *gorm.DB {
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		db = db.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.UserID != uuid.Nil {
		db = db.Where("user_id = ?", f.UserID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		db = db.Where("LOWER(order_number) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	return db
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

// Create inserts the order and its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns newest orders first with their items.
func (r *Repository) List(ctx context.Context, filters Filters, limit, offset int) ([]models.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Scopes(filters.apply).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Scopes(filters.apply).
		Preload("Items", orderedItems).
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

// Update changes order-level columns only. Items are never rewritten.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
