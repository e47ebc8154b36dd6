package address

import (
	"context"
	"time"

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

// ListByUser returns defaults first, then oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default_ship DESC").
		Order("is_default_bill DESC").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var row models.Address
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

// Save writes every column of address.
func (r *Repository) Save(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Save(address).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearDefault unsets the kind flag on every other address of the user.
// exceptID may be uuid.Nil when the target address does not exist yet.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID, kind enums.AddressDefault, exceptID uuid.UUID) error {
	column := defaultColumn(kind)
	q := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ?", userID).
		Where(column+" = ?", true)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	return q.Updates(map[string]any{column: false, "updated_at": time.Now().UTC()}).Error
}

// FindDefault returns the user's current default address of kind.
func (r *Repository) FindDefault(ctx context.Context, userID uuid.UUID, kind enums.AddressDefault) (*models.Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(defaultColumn(kind)+" = ?", true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func defaultColumn(kind enums.AddressDefault) string {
	if kind == enums.AddressDefaultBill {
		return "is_default_bill"
	}
	return "is_default_ship"
}
