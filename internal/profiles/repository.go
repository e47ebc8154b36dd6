package profiles

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CustomerRow is a profile with its order aggregates.
type CustomerRow struct {
	models.Profile
	OrderCount int64           `gorm:"column:order_count"`
	TotalSpent decimal.Decimal `gorm:"column:total_spent"`
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var row models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateIfMissing inserts the profile unless one already exists for the id.
func (r *Repository) CreateIfMissing(ctx context.Context, row *models.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (r *Repository) Save(ctx context.Context, row *models.Profile) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func searchScope(search string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term := strings.ToLower(strings.TrimSpace(search))
		if term == "" {
			return db
		}
		like := "%" + term + "%"
		return db.Where("(LOWER(profiles.email) LIKE ? OR LOWER(COALESCE(profiles.full_name, '')) LIKE ?)", like, like)
	}
}

func (r *Repository) customerQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("profiles").
		Select(`profiles.*,
			COUNT(orders.id) AS order_count,
			COALESCE(SUM(CASE WHEN orders.payment_status = ? THEN orders.total ELSE 0 END), 0) AS total_spent`,
			enums.PaymentStatusPaid).
		Joins("LEFT JOIN orders ON orders.user_id = profiles.id").
		Group("profiles.id")
}

// ListCustomers pages profiles newest first with their order aggregates.
func (r *Repository) ListCustomers(ctx context.Context, search string, limit, offset int) ([]CustomerRow, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).Scopes(searchScope(search)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []CustomerRow
	err := r.customerQuery(ctx).
		Scopes(searchScope(search)).
		Order("profiles.created_at DESC").
		Order("profiles.id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) FindCustomer(ctx context.Context, id uuid.UUID) (*CustomerRow, error) {
	var rows []CustomerRow
	if err := r.customerQuery(ctx).Where("profiles.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}
