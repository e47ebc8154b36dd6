package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is keyed by the auth provider's user id and created on first access.
type Profile struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null"`
	FullName  *string   `gorm:"column:full_name"`
	Phone     *string   `gorm:"column:phone"`
	AvatarURL *string   `gorm:"column:avatar_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
