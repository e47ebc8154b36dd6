package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a user's address book and keeps at most one default
// shipping and one default billing address per user.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]View, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*View, error)
	Create(ctx context.Context, userID uuid.UUID, input Input) (*View, error)
	Update(ctx context.Context, userID, id uuid.UUID, input Input) (*View, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID, kind enums.AddressDefault) (*View, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]View, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToView(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*View, error) {
	row, err := owned(ctx, s.repo, userID, id)
	if err != nil {
		return nil, err
	}
	view := ToView(*row)
	return &view, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*View, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	row := &models.Address{UserID: userID}
	input.apply(row)
	row.IsDefaultShip = input.IsDefaultShip != nil && *input.IsDefaultShip
	row.IsDefaultBill = input.IsDefaultBill != nil && *input.IsDefaultBill

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := clearOtherDefaults(ctx, repo, row); err != nil {
			return err
		}
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := ToView(*row)
	return &view, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input Input) (*View, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	var row *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		row, err = owned(ctx, repo, userID, id)
		if err != nil {
			return err
		}
		input.apply(row)
		if input.IsDefaultShip != nil {
			row.IsDefaultShip = *input.IsDefaultShip
		}
		if input.IsDefaultBill != nil {
			row.IsDefaultBill = *input.IsDefaultBill
		}
		if err := clearOtherDefaults(ctx, repo, row); err != nil {
			return err
		}
		if err := repo.Save(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := ToView(*row)
	return &view, nil
}

// Delete does not promote another address; the next default set fills the gap.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := owned(ctx, repo, userID, id); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
		}
		return nil
	})
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID, kind enums.AddressDefault) (*View, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kind must be ship or bill")
	}
	var row *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		row, err = owned(ctx, repo, userID, id)
		if err != nil {
			return err
		}
		if kind == enums.AddressDefaultShip {
			row.IsDefaultShip = true
		} else {
			row.IsDefaultBill = true
		}
		if err := clearDefault(ctx, repo, row, kind); err != nil {
			return err
		}
		if err := repo.Save(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set default address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := ToView(*row)
	return &view, nil
}

// clearOtherDefaults runs before the target row is written. Ship and bill are
// handled independently.
func clearOtherDefaults(ctx context.Context, repo *Repository, row *models.Address) error {
	if row.IsDefaultShip {
		if err := clearDefault(ctx, repo, row, enums.AddressDefaultShip); err != nil {
			return err
		}
	}
	if row.IsDefaultBill {
		if err := clearDefault(ctx, repo, row, enums.AddressDefaultBill); err != nil {
			return err
		}
	}
	return nil
}

func clearDefault(ctx context.Context, repo *Repository, row *models.Address, kind enums.AddressDefault) error {
	current, err := repo.FindDefault(ctx, row.UserID, kind)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load default address")
	case current.ID == row.ID:
		return nil
	}
	if err := repo.ClearDefault(ctx, row.UserID, kind, row.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
	}
	return nil
}

func owned(ctx context.Context, repo *Repository, userID, id uuid.UUID) (*models.Address, error) {
	row, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	if row.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address belongs to another user")
	}
	return row, nil
}

func validate(input Input) error {
	missing := map[string]string{}
	required := map[string]string{
		"full_name":   input.FullName,
		"line1":       input.Line1,
		"city":        input.City,
		"postal_code": input.PostalCode,
		"country":     input.Country,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			missing[field] = "is required"
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(missing)
	}
	return nil
}
