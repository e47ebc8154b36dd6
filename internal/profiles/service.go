package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/media"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const recentOrderLimit = 5

type Input struct {
	FullName  *string `json:"full_name" validate:"omitempty,max=200"`
	Phone     *string `json:"phone" validate:"omitempty,max=40"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=2048"`
}

type View struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CustomerSummary struct {
	View
	OrderCount          int64           `json:"order_count"`
	TotalSpent          decimal.Decimal `json:"total_spent"`
	TotalSpentFormatted string          `json:"total_spent_formatted"`
}

type CustomerDetail struct {
	CustomerSummary
	Addresses    []address.View `json:"addresses"`
	RecentOrders []orders.View  `json:"recent_orders"`
}

type CustomerList = types.ListEnvelope[CustomerSummary]

type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID, email string) (*View, error)
	Update(ctx context.Context, userID uuid.UUID, email string, input Input) (*View, error)
	ListCustomers(ctx context.Context, search string, page pagination.Page) (*CustomerList, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDetail, error)
}

type ServiceParams struct {
	Repo         *Repository
	Addresses    *address.Repository
	Orders       *orders.Repository
	MediaBaseURL string
}

type service struct {
	repo      *Repository
	addresses *address.Repository
	orders    *orders.Repository
	mediaBase string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{
		repo:      params.Repo,
		addresses: params.Addresses,
		orders:    params.Orders,
		mediaBase: params.MediaBaseURL,
	}, nil
}

// GetOrCreate returns the caller's profile, creating it on first access.
func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID, email string) (*View, error) {
	row, err := s.ensure(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	view := s.toView(*row)
	return &view, nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, email string, input Input) (*View, error) {
	row, err := s.ensure(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	if input.FullName != nil {
		row.FullName = blankToNil(*input.FullName)
	}
	if input.Phone != nil {
		row.Phone = blankToNil(*input.Phone)
	}
	if input.AvatarURL != nil {
		row.AvatarURL = blankToNil(*input.AvatarURL)
	}
	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	view := s.toView(*row)
	return &view, nil
}

func (s *service) ListCustomers(ctx context.Context, search string, page pagination.Page) (*CustomerList, error) {
	page = page.Normalize()
	rows, total, err := s.repo.ListCustomers(ctx, search, page.Limit(), page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customers")
	}
	items := make([]CustomerSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.toSummary(row))
	}
	return &CustomerList{Items: items, Page: page.Page, PerPage: page.PerPage, Total: total}, nil
}

func (s *service) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDetail, error) {
	row, err := s.repo.FindCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	addrs, err := s.addresses.ListByUser(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer addresses")
	}
	recent, _, err := s.orders.List(ctx, orders.Filters{UserID: id}, recentOrderLimit, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer orders")
	}

	out := &CustomerDetail{
		CustomerSummary: s.toSummary(*row),
		Addresses:       make([]address.View, 0, len(addrs)),
		RecentOrders:    make([]orders.View, 0, len(recent)),
	}
	for _, a := range addrs {
		out.Addresses = append(out.Addresses, address.ToView(a))
	}
	for _, o := range recent {
		out.RecentOrders = append(out.RecentOrders, orders.ToView(o))
	}
	return out, nil
}

func (s *service) ensure(ctx context.Context, userID uuid.UUID, email string) (*models.Profile, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	row, err := s.repo.FindByID(ctx, userID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	created := &models.Profile{ID: userID, Email: strings.TrimSpace(email)}
	if err := s.repo.CreateIfMissing(ctx, created); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create profile")
	}
	row, err = s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload profile")
	}
	return row, nil
}

func (s *service) toView(row models.Profile) View {
	return View{
		ID:        row.ID,
		Email:     row.Email,
		FullName:  row.FullName,
		Phone:     row.Phone,
		AvatarURL: media.NormalizePtr(row.AvatarURL, s.mediaBase),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func (s *service) toSummary(row CustomerRow) CustomerSummary {
	return CustomerSummary{
		View:                s.toView(row.Profile),
		OrderCount:          row.OrderCount,
		TotalSpent:          row.TotalSpent,
		TotalSpentFormatted: money.Format(row.TotalSpent, enums.CurrencyUSD),
	}
}

func blankToNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
