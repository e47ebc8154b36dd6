package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderCreator interface {
	CreateWithTx(ctx context.Context, tx *gorm.DB, input orders.CreateInput) (*orders.View, error)
}

type addressLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
}

// Input carries the caller-computed aggregates and the addresses to snapshot.
type Input struct {
	ShippingAddressID uuid.UUID `json:"shipping_address_id" validate:"required"`
	BillingAddressID  uuid.UUID `json:"billing_address_id"`
	Notes             *string   `json:"notes" validate:"omitempty,max=2000"`
	orders.Aggregates
}

type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*orders.View, error)
}

type ServiceParams struct {
	Tx        txRunner
	Carts     cart.CartRepository
	Addresses *address.Repository
	Catalog   products.CatalogReader
	Orders    orderCreator
}

type service struct {
	tx        txRunner
	carts     cart.CartRepository
	addresses *address.Repository
	catalog   products.CatalogReader
	orders    orderCreator
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Addresses == nil:
		return nil, fmt.Errorf("address repository required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog reader required")
	case params.Orders == nil:
		return nil, fmt.Errorf("order creator required")
	}
	return &service{
		tx:        params.Tx,
		carts:     params.Carts,
		addresses: params.Addresses,
		catalog:   params.Catalog,
		orders:    params.Orders,
	}, nil
}

// Checkout converts the active cart into an order. Stock is taken with a
// conditional decrement per line; any shortfall rolls the whole order back.
// The converted cart is deactivated so the next read starts a fresh one.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*orders.View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if input.ShippingAddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping_address_id is required")
	}
	billingID := input.BillingAddressID
	if billingID == uuid.Nil {
		billingID = input.ShippingAddressID
	}

	var view *orders.View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		active, err := carts.FindActive(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if active == nil || len(active.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		addresses := s.addresses.WithTx(tx)
		shipping, err := ownedSnapshot(ctx, addresses, userID, input.ShippingAddressID)
		if err != nil {
			return err
		}
		billing, err := ownedSnapshot(ctx, addresses, userID, billingID)
		if err != nil {
			return err
		}

		catalog := s.catalog.WithTx(tx)
		lines := make([]orders.LineInput, 0, len(active.Items))
		for _, item := range active.Items {
			variant, err := catalog.GetVariant(ctx, item.VariantID)
			if err != nil {
				return err
			}
			// archived products and deactivated variants cannot be bought, same as cart add
			if !variant.Purchasable {
				return pkgerrors.NotFound("variant").WithDetails(map[string]any{"variant_id": item.VariantID.String()})
			}
			lines = append(lines, orders.LineInput{VariantID: item.VariantID, Quantity: item.Quantity})
		}
		view, err = s.orders.CreateWithTx(ctx, tx, orders.CreateInput{
			UserID:          userID,
			Lines:           lines,
			Currency:        active.Items[0].Currency,
			ShippingAddress: shipping,
			BillingAddress:  billing,
			Notes:           input.Notes,
			Aggregates:      input.Aggregates,
		})
		if err != nil {
			return err
		}

		for _, item := range active.Items {
			if err := catalog.DecrementStock(ctx, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		if err := carts.Deactivate(ctx, active.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func ownedSnapshot(ctx context.Context, addresses addressLoader, userID, id uuid.UUID) (*types.AddressSnapshot, error) {
	row, err := addresses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	if row.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address belongs to another user")
	}
	snapshot := row.Snapshot()
	return &snapshot, nil
}
