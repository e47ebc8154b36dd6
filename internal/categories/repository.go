package categories

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
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

func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.Category
	err := q.Order("sort_order ASC").Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var row models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, row *models.Category) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) Save(ctx context.Context, row *models.Category) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// Delete removes the category, detaching its products and child categories.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Category{}).Where("parent_id = ?", id).Update("parent_id", nil).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
