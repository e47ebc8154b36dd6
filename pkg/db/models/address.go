package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address belongs to one user. Per user, at most one row carries each default flag.
type Address struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:addresses_user_id_idx"`
	Label         *string   `gorm:"column:label"`
	FullName      string    `gorm:"column:full_name;not null"`
	Line1         string    `gorm:"column:line1;not null"`
	Line2         *string   `gorm:"column:line2"`
	City          string    `gorm:"column:city;not null"`
	State         *string   `gorm:"column:state"`
	PostalCode    string    `gorm:"column:postal_code;not null"`
	Country       string    `gorm:"column:country;not null"`
	Phone         *string   `gorm:"column:phone"`
	IsDefaultShip bool      `gorm:"column:is_default_ship;not null"`
	IsDefaultBill bool      `gorm:"column:is_default_bill;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Snapshot copies the postal fields for storage on an order.
func (a Address) Snapshot() types.AddressSnapshot {
	return types.AddressSnapshot{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}
