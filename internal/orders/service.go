package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service creates snapshot orders and serves the customer and admin order views.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*View, error)
	// CreateWithTx runs inside the caller's transaction, for checkout.
	CreateWithTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*View, error)

	ListForUser(ctx context.Context, userID uuid.UUID, page pagination.Page) (*ListResult, error)
	GetForUser(ctx context.Context, userID, id uuid.UUID) (*View, error)

	List(ctx context.Context, filters Filters, page pagination.Page) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*View, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*View, error)
}

type ServiceParams struct {
	Repo    *Repository
	Catalog products.CatalogReader
	Tx      txRunner
	Now     func() time.Time
}

type service struct {
	repo    *Repository
	catalog products.CatalogReader
	tx      txRunner
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, catalog: params.Catalog, tx: params.Tx, now: now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*View, error) {
	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		view, err = s.CreateWithTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// CreateWithTx copies name, sku, price, currency and image from the catalog as
// it stands now. Later catalog edits never reach the stored items.
func (s *service) CreateWithTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*View, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	paymentStatus := input.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = enums.PaymentStatusPending
	}
	if !paymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	catalog := s.catalog.WithTx(tx)
	items := make([]models.OrderItem, 0, len(input.Lines))
	currency := input.Currency
	for _, line := range input.Lines {
		variant, err := catalog.GetVariant(ctx, line.VariantID)
		if err != nil {
			return nil, err
		}
		if currency == "" {
			currency = variant.Currency
		}
		if variant.Currency != currency {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order lines must share one currency").
				WithDetails(map[string]any{"variant_id": variant.VariantID.String(), "currency": variant.Currency})
		}
		image, err := catalog.GetPrimaryImage(ctx, variant.ProductID)
		if err != nil {
			return nil, err
		}
		productID, variantID := variant.ProductID, variant.VariantID
		items = append(items, models.OrderItem{
			ProductID:   &productID,
			VariantID:   &variantID,
			ProductName: variant.ProductName,
			SKU:         variant.SKU,
			ImageURL:    image,
			UnitPrice:   variant.Price,
			Currency:    variant.Currency,
			Quantity:    line.Quantity,
			LineTotal:   variant.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	order := &models.Order{
		OrderNumber:     s.orderNumber(),
		UserID:          input.UserID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   paymentStatus,
		Currency:        currency,
		Subtotal:        input.Subtotal,
		Tax:             input.Tax,
		Shipping:        input.Shipping,
		Discount:        input.Discount,
		Total:           input.Total,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Notes:           input.Notes,
		Items:           items,
	}
	repo := s.repo.WithTx(tx)
	if err := repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
	stored, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	view := ToView(*stored)
	return &view, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, page pagination.Page) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	return s.list(ctx, Filters{UserID: userID}, page)
}

func (s *service) GetForUser(ctx context.Context, userID, id uuid.UUID) (*View, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return view, nil
}

func (s *service) List(ctx context.Context, filters Filters, page pagination.Page) (*ListResult, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if filters.PaymentStatus != "" && !filters.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	return s.list(ctx, filters, page)
}

func (s *service) list(ctx context.Context, filters Filters, page pagination.Page) (*ListResult, error) {
	page = page.Normalize()
	rows, total, err := s.repo.List(ctx, filters, page.Limit(), page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	items := make([]View, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToView(row))
	}
	return &ListResult{Items: items, Page: page.Page, PerPage: page.PerPage, Total: total}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "load order")
	}
	view := ToView(*order)
	return &view, nil
}

// Update changes status, payment status, aggregates or notes. Item snapshots stay as created.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*View, error) {
	updates := map[string]any{}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		updates["status"] = *input.Status
	}
	if input.PaymentStatus != nil {
		if !input.PaymentStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
		}
		updates["payment_status"] = *input.PaymentStatus
	}
	amounts := []struct {
		column string
		value  *decimal.Decimal
	}{
		{"subtotal", input.Subtotal},
		{"tax", input.Tax},
		{"shipping", input.Shipping},
		{"discount", input.Discount},
		{"total", input.Total},
	}
	for _, amount := range amounts {
		if amount.value == nil {
			continue
		}
		if amount.value.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, amount.column+" must be non-negative")
		}
		updates[amount.column] = *amount.value
	}
	if input.Notes != nil {
		updates["notes"] = strings.TrimSpace(*input.Notes)
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, id, updates); err != nil {
			return mapNotFound(err, "update order")
		}
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "load order")
		}
		v := ToView(*order)
		view = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) orderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("SF-%s-%s", s.now().UTC().Format("20060102"), suffix)
}

func validateCreate(input CreateInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user_id is required")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for i, line := range input.Lines {
		if line.VariantID == uuid.Nil || line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid order item").
				WithDetails(map[string]any{"index": i})
		}
	}
	if input.Currency != "" && !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	for name, amount := range map[string]decimal.Decimal{
		"subtotal": input.Subtotal,
		"tax":      input.Tax,
		"shipping": input.Shipping,
		"discount": input.Discount,
		"total":    input.Total,
	} {
		if amount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, name+" must be non-negative")
		}
	}
	return nil
}

func mapNotFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
