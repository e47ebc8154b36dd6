package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/media"
	"github.com/angelmondragon/storefront-backend/pkg/slug"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Input struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Slug        string  `json:"slug" validate:"omitempty,max=120"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url" validate:"omitempty,max=2048"`
	IsActive    *bool   `json:"is_active"`
}

type SetProductsInput struct {
	ProductIDs []uuid.UUID `json:"product_ids" validate:"max=500"`
}

type View struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DetailView is a collection with its member products.
type DetailView struct {
	View
	Products []products.ProductSummary `json:"products"`
}

type Service interface {
	ListActive(ctx context.Context) ([]View, error)
	GetBySlug(ctx context.Context, slug string) (*DetailView, error)
	List(ctx context.Context) ([]View, error)
	Get(ctx context.Context, id uuid.UUID) (*DetailView, error)
	Create(ctx context.Context, input Input) (*View, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*View, error)
	SetProducts(ctx context.Context, id uuid.UUID, input SetProductsInput) (*DetailView, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      *Repository
	tx        txRunner
	mediaBase string
}

func NewService(repo *Repository, tx txRunner, mediaBaseURL string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("collection repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, mediaBase: mediaBaseURL}, nil
}

func (s *service) ListActive(ctx context.Context) ([]View, error) {
	return s.list(ctx, true)
}

func (s *service) List(ctx context.Context) ([]View, error) {
	return s.list(ctx, false)
}

func (s *service) list(ctx context.Context, activeOnly bool) ([]View, error) {
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list collections")
	}
	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.toView(row))
	}
	return out, nil
}

// GetBySlug hides inactive collections and non-active products.
func (s *service) GetBySlug(ctx context.Context, value string) (*DetailView, error) {
	row, err := s.repo.FindActiveBySlug(ctx, strings.TrimSpace(value))
	if err != nil {
		return nil, notFoundOr(err, "load collection")
	}
	return s.detail(ctx, s.repo, row, true)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DetailView, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load collection")
	}
	return s.detail(ctx, s.repo, row, false)
}

func (s *service) Create(ctx context.Context, input Input) (*View, error) {
	row := &models.Collection{IsActive: true}
	if err := apply(row, input); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		value, err := resolveSlug(ctx, repo, input.Slug, row.Name, uuid.Nil)
		if err != nil {
			return err
		}
		row.Slug = value
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create collection")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := s.toView(*row)
	return &view, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*View, error) {
	var row *models.Collection
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		row, err = repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "load collection")
		}
		if err := apply(row, input); err != nil {
			return err
		}
		if strings.TrimSpace(input.Slug) != "" {
			value, err := resolveSlug(ctx, repo, input.Slug, row.Name, id)
			if err != nil {
				return err
			}
			row.Slug = value
		}
		if err := repo.Save(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update collection")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := s.toView(*row)
	return &view, nil
}

// SetProducts replaces the member list. Duplicate ids keep their first position.
func (s *service) SetProducts(ctx context.Context, id uuid.UUID, input SetProductsInput) (*DetailView, error) {
	ids := dedupe(input.ProductIDs)
	var out *DetailView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "load collection")
		}
		found, err := repo.CountProducts(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check products")
		}
		if found != int64(len(ids)) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "one or more products not found")
		}
		if err := repo.ReplaceProducts(ctx, id, ids); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace collection products")
		}
		out, err = s.detail(ctx, repo, row, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return notFoundOr(err, "delete collection")
		}
		return nil
	})
}

func (s *service) detail(ctx context.Context, repo *Repository, row *models.Collection, activeOnly bool) (*DetailView, error) {
	members, err := repo.Products(ctx, row.ID, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load collection products")
	}
	out := &DetailView{View: s.toView(*row), Products: make([]products.ProductSummary, 0, len(members))}
	for _, p := range members {
		out.Products = append(out.Products, products.Summarize(p, s.mediaBase))
	}
	return out, nil
}

func (s *service) toView(row models.Collection) View {
	return View{
		ID:          row.ID,
		Name:        row.Name,
		Slug:        row.Slug,
		Description: row.Description,
		ImageURL:    media.NormalizePtr(row.ImageURL, s.mediaBase),
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func apply(row *models.Collection, input Input) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	row.Name = name
	row.Description = input.Description
	row.ImageURL = input.ImageURL
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func resolveSlug(ctx context.Context, repo *Repository, requested, name string, exclude uuid.UUID) (string, error) {
	taken := func(ctx context.Context, candidate string) (bool, error) {
		return repo.SlugTaken(ctx, candidate, exclude)
	}
	if strings.TrimSpace(requested) != "" {
		candidate := slug.Make(requested)
		if candidate == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "slug is invalid")
		}
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check slug")
		}
		if exists {
			return "", pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return candidate, nil
	}
	base := slug.Make(name)
	if base == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must contain letters or digits")
	}
	value, err := slug.Unique(ctx, base, taken)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate slug")
	}
	return value, nil
}

func notFoundOr(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "collection not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
