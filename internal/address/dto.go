package address

import (
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Input is the create and replace payload. Nil default flags keep the current value
// on update and mean false on create.
type Input struct {
	Label         *string `json:"label" validate:"omitempty,max=60"`
	FullName      string  `json:"full_name" validate:"required,max=200"`
	Line1         string  `json:"line1" validate:"required,max=200"`
	Line2         *string `json:"line2" validate:"omitempty,max=200"`
	City          string  `json:"city" validate:"required,max=120"`
	State         *string `json:"state" validate:"omitempty,max=120"`
	PostalCode    string  `json:"postal_code" validate:"required,max=20"`
	Country       string  `json:"country" validate:"required,len=2"`
	Phone         *string `json:"phone" validate:"omitempty,max=40"`
	IsDefaultShip *bool   `json:"is_default_ship"`
	IsDefaultBill *bool   `json:"is_default_bill"`
}

type View struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Label         *string   `json:"label,omitempty"`
	FullName      string    `json:"full_name"`
	Line1         string    `json:"line1"`
	Line2         *string   `json:"line2,omitempty"`
	City          string    `json:"city"`
	State         *string   `json:"state,omitempty"`
	PostalCode    string    `json:"postal_code"`
	Country       string    `json:"country"`
	Phone         *string   `json:"phone,omitempty"`
	IsDefaultShip bool      `json:"is_default_ship"`
	IsDefaultBill bool      `json:"is_default_bill"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func ToView(a models.Address) View {
	return View{
		ID:            a.ID,
		UserID:        a.UserID,
		Label:         a.Label,
		FullName:      a.FullName,
		Line1:         a.Line1,
		Line2:         a.Line2,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
		Phone:         a.Phone,
		IsDefaultShip: a.IsDefaultShip,
		IsDefaultBill: a.IsDefaultBill,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (in Input) apply(a *models.Address) {
	a.Label = trimPtr(in.Label)
	a.FullName = strings.TrimSpace(in.FullName)
	a.Line1 = strings.TrimSpace(in.Line1)
	a.Line2 = trimPtr(in.Line2)
	a.City = strings.TrimSpace(in.City)
	a.State = trimPtr(in.State)
	a.PostalCode = strings.TrimSpace(in.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(in.Country))
	a.Phone = trimPtr(in.Phone)
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
