package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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
	Name        string     `json:"name" validate:"required,max=120"`
	Slug        string     `json:"slug" validate:"omitempty,max=120"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url" validate:"omitempty,max=2048"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order"`
	IsActive    *bool      `json:"is_active"`
}

type View struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	SortOrder   int        `json:"sort_order"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Service interface {
	ListActive(ctx context.Context) ([]View, error)
	List(ctx context.Context) ([]View, error)
	Create(ctx context.Context, input Input) (*View, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*View, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      *Repository
	tx        txRunner
	mediaBase string
}

func NewService(repo *Repository, tx txRunner, mediaBaseURL string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.toView(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input Input) (*View, error) {
	row := &models.Category{IsActive: true}
	if err := s.apply(row, input); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		value, err := resolveSlug(ctx, repo, input.Slug, row.Name, uuid.Nil)
		if err != nil {
			return err
		}
		row.Slug = value
		if err := checkParent(ctx, repo, row); err != nil {
			return err
		}
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
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
	var row *models.Category
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		row, err = repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "load category")
		}
		if err := s.apply(row, input); err != nil {
			return err
		}
		if strings.TrimSpace(input.Slug) != "" {
			value, err := resolveSlug(ctx, repo, input.Slug, row.Name, id)
			if err != nil {
				return err
			}
			row.Slug = value
		}
		if err := checkParent(ctx, repo, row); err != nil {
			return err
		}
		if err := repo.Save(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := s.toView(*row)
	return &view, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return notFoundOr(err, "delete category")
		}
		return nil
	})
}

func (s *service) apply(row *models.Category, input Input) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	row.Name = name
	row.Description = input.Description
	row.ImageURL = input.ImageURL
	row.ParentID = input.ParentID
	row.SortOrder = input.SortOrder
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}
	return nil
}

func (s *service) toView(row models.Category) View {
	return View{
		ID:          row.ID,
		Name:        row.Name,
		Slug:        row.Slug,
		Description: row.Description,
		ImageURL:    media.NormalizePtr(row.ImageURL, s.mediaBase),
		ParentID:    row.ParentID,
		SortOrder:   row.SortOrder,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func checkParent(ctx context.Context, repo *Repository, row *models.Category) error {
	if row.ParentID == nil {
		return nil
	}
	if *row.ParentID == row.ID {
		return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
	}
	if _, err := repo.FindByID(ctx, *row.ParentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parent category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load parent category")
	}
	return nil
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
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "category not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
