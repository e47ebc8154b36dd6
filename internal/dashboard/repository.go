package dashboard

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LowStockRow is an active variant at or under the alert threshold.
type LowStockRow struct {
	VariantID   uuid.UUID `gorm:"column:variant_id"`
	ProductID   uuid.UUID `gorm:"column:product_id"`
	ProductName string    `gorm:"column:product_name"`
	VariantName string    `gorm:"column:variant_name"`
	SKU         string    `gorm:"column:sku"`
	Stock       int       `gorm:"column:stock"`
}

func (r *Repository) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var out struct {
		Revenue decimal.Decimal `gorm:"column:revenue"`
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS revenue").
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Scan(&out).Error
	return out.Revenue, err
}

func (r *Repository) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (r *Repository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Count(&n).Error
	return n, err
}

func (r *Repository) CountActiveProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("status = ?", enums.ProductStatusActive).
		Count(&n).Error
	return n, err
}

func (r *Repository) LowStock(ctx context.Context, threshold, limit int) ([]LowStockRow, error) {
	var rows []LowStockRow
	err := r.db.WithContext(ctx).
		Table("product_variants v").
		Select(`v.id AS variant_id, v.product_id, p.name AS product_name,
			v.name AS variant_name, v.sku, v.stock`).
		Joins("JOIN products p ON p.id = v.product_id").
		Where("v.is_active = ? AND p.status = ? AND v.stock <= ?", true, enums.ProductStatusActive, threshold).
		Order("v.stock ASC").
		Order("v.sku ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
