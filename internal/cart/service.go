package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the cart manager. Each mutation runs in one transaction.
type Service interface {
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartView, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartView, error)
}

type ServiceParams struct {
	Repo    CartRepository
	Catalog products.CatalogReader
	Tx      txRunner
	Metrics *metrics.CartMetrics
}

type service struct {
	repo    CartRepository
	catalog products.CatalogReader
	tx      txRunner
	metrics *metrics.CartMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    params.Repo,
		catalog: params.Catalog,
		tx:      params.Tx,
		metrics: params.Metrics,
	}, nil
}

func (s *service) GetActiveCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := getOrCreate(ctx, s.repo.WithTx(tx), userID)
		if err != nil {
			return err
		}
		view = toView(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AddItem checks quantity against stock, merges into an existing line for the
// variant, or inserts a new line carrying the catalog snapshot.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant_id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		catalog := s.catalog.WithTx(tx)

		variant, err := s.purchasableVariant(ctx, catalog, input.VariantID)
		if err != nil {
			return err
		}
		if input.Quantity > variant.Stock {
			return s.insufficientStock(variant, input.Quantity, 0)
		}

		cart, err := getOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByVariant(ctx, cart.ID, variant.VariantID)
		switch {
		case err == nil:
			if err := s.merge(ctx, repo, existing, variant, input.Quantity); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			image, err := catalog.GetPrimaryImage(ctx, variant.ProductID)
			if err != nil {
				return err
			}
			item := &models.CartItem{
				CartID:      cart.ID,
				VariantID:   variant.VariantID,
				ProductID:   variant.ProductID,
				Quantity:    input.Quantity,
				UnitPrice:   variant.Price,
				Currency:    variant.Currency,
				ProductName: variant.ProductName,
				SKU:         variant.SKU,
				ImageURL:    image,
			}
			inserted, err := repo.InsertItem(ctx, item)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert cart item")
			}
			if !inserted {
				// a concurrent add created the line first
				existing, err := repo.FindItemByVariant(ctx, cart.ID, variant.VariantID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart item")
				}
				if err := s.merge(ctx, repo, existing, variant, input.Quantity); err != nil {
					return err
				}
			} else {
				s.metrics.IncAdded()
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}

		if err := repo.Touch(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch cart")
		}
		view, err = reload(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateItemQuantity sets an absolute quantity. Below 1 removes the line.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return s.RemoveItem(ctx, userID, itemID)
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		variant, err := s.catalog.WithTx(tx).GetVariant(ctx, item.VariantID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				s.metrics.IncRejected(metrics.CartRejectVariantNotFound)
			}
			return err
		}
		if quantity > variant.Stock {
			return s.insufficientStock(variant, quantity, item.Quantity)
		}
		if err := repo.SetQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
		if err := repo.Touch(ctx, item.CartID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch cart")
		}
		view, err = reload(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
		}
		if err := repo.Touch(ctx, item.CartID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch cart")
		}
		view, err = reload(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := getOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := repo.ClearItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		if err := repo.Touch(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch cart")
		}
		view, err = reload(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) purchasableVariant(ctx context.Context, catalog products.CatalogReader, variantID uuid.UUID) (*products.VariantSnapshot, error) {
	variant, err := catalog.GetVariant(ctx, variantID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.metrics.IncRejected(metrics.CartRejectVariantNotFound)
		}
		return nil, err
	}
	if !variant.Purchasable {
		s.metrics.IncRejected(metrics.CartRejectVariantNotFound)
		return nil, pkgerrors.NotFound("variant")
	}
	return variant, nil
}

func (s *service) merge(ctx context.Context, repo CartRepository, existing *models.CartItem, variant *products.VariantSnapshot, delta int) error {
	ok, err := repo.MergeQuantity(ctx, existing.ID, variant.VariantID, delta)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart item")
	}
	if !ok {
		return s.insufficientStock(variant, existing.Quantity+delta, existing.Quantity)
	}
	s.metrics.IncMerged()
	return nil
}

func (s *service) ownedItem(ctx context.Context, repo CartRepository, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, owner, err := repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	if owner != userID {
		s.metrics.IncRejected(metrics.CartRejectForbidden)
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item belongs to another user")
	}
	// lines of a cart retired by checkout are history, not editable items
	active, err := repo.FindActive(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active cart")
	}
	if active == nil || active.ID != item.CartID {
		return nil, pkgerrors.NotFound("cart item")
	}
	return item, nil
}

func (s *service) insufficientStock(variant *products.VariantSnapshot, requested, inCart int) error {
	s.metrics.IncRejected(metrics.CartRejectInsufficientStock)
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(map[string]any{
		"variant_id": variant.VariantID.String(),
		"requested":  requested,
		"in_cart":    inCart,
		"available":  variant.Stock,
	})
}

// getOrCreate returns the active cart, creating it when the user has none.
func getOrCreate(ctx context.Context, repo CartRepository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindActive(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if _, err := repo.CreateActive(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	cart, err = repo.FindActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func reload(ctx context.Context, repo CartRepository, userID uuid.UUID) (*CartView, error) {
	cart, err := repo.FindActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return toView(cart), nil
}
