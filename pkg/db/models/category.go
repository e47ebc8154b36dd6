package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex:categories_slug_key"`
	Description *string    `gorm:"column:description"`
	ImageURL    *string    `gorm:"column:image_url"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	SortOrder   int        `gorm:"column:sort_order;not null"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
