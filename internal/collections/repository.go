package collections

import (
	"context"

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

func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Collection, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.Collection
	err := q.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	var row models.Collection
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	var row models.Collection
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Products returns the collection's members in position order.
func (r *Repository) Products(ctx context.Context, collectionID uuid.UUID, activeOnly bool) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Select("products.*").
		Joins("JOIN collection_products cp ON cp.product_id = products.id").
		Where("cp.collection_id = ?", collectionID)
	if activeOnly {
		q = q.Where("products.status = ?", enums.ProductStatusActive)
	}
	var rows []models.Product
	err := q.Order("cp.position ASC").Order("products.name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Collection{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *Repository) CountProducts(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *Repository) Create(ctx context.Context, row *models.Collection) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) Save(ctx context.Context, row *models.Collection) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// ReplaceProducts swaps the membership list; positions follow slice order.
func (r *Repository) ReplaceProducts(ctx context.Context, collectionID uuid.UUID, productIDs []uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("collection_id = ?", collectionID).Delete(&models.CollectionProduct{}).Error; err != nil {
		return err
	}
	if len(productIDs) == 0 {
		return nil
	}
	rows := make([]models.CollectionProduct, 0, len(productIDs))
	for i, id := range productIDs {
		rows = append(rows, models.CollectionProduct{CollectionID: collectionID, ProductID: id, Position: i})
	}
	return db.Create(&rows).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("collection_id = ?", id).Delete(&models.CollectionProduct{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&models.Collection{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
