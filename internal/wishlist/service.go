package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemView wraps the saved product's summary.
type ItemView struct {
	Product   products.ProductSummary `json:"product"`
	CreatedAt time.Time               `json:"created_at"`
}

type ListResult = types.ListEnvelope[ItemView]

type Service interface {
	List(ctx context.Context, userID uuid.UUID, page pagination.Page) (*ListResult, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	repo      *Repository
	mediaBase string
}

func NewService(repo *Repository, mediaBaseURL string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	return &service{repo: repo, mediaBase: mediaBaseURL}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, page pagination.Page) (*ListResult, error) {
	page = page.Normalize()
	rows, total, err := s.repo.List(ctx, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist")
	}
	items := make([]ItemView, 0, len(rows))
	for _, row := range rows {
		if row.Product == nil {
			continue
		}
		items = append(items, ItemView{
			Product:   products.Summarize(*row.Product, s.mediaBase),
			CreatedAt: row.CreatedAt,
		})
	}
	return &ListResult{Items: items, Page: page.Page, PerPage: page.PerPage, Total: total}, nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !exists {
		return pkgerrors.NotFound("product")
	}
	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wishlist item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
	}
	return nil
}
