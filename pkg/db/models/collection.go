package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Collection struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex:collections_slug_key"`
	Description *string   `gorm:"column:description"`
	ImageURL    *string   `gorm:"column:image_url"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Collection) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CollectionProduct orders a product inside a collection.
type CollectionProduct struct {
	CollectionID uuid.UUID `gorm:"column:collection_id;type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Position     int       `gorm:"column:position;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
