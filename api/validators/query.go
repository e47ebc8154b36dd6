package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const maxPage = 1_000_000

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryBool returns nil when the parameter is absent.
func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParsePage reads page/per_page, or limit/offset when either is present.
func ParsePage(r *http.Request) (pagination.Page, error) {
	q := r.URL.Query()
	if q.Has("limit") || q.Has("offset") {
		limit, err := ParseQueryInt(r, "limit", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
		if err != nil {
			return pagination.Page{}, err
		}
		offset, err := ParseQueryInt(r, "offset", 0, 0, maxPage*pagination.MaxPerPage)
		if err != nil {
			return pagination.Page{}, err
		}
		return pagination.FromLimitOffset(limit, offset), nil
	}

	page, err := ParseQueryInt(r, "page", 1, 1, maxPage)
	if err != nil {
		return pagination.Page{}, err
	}
	perPage, err := ParseQueryInt(r, "per_page", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
	if err != nil {
		return pagination.Page{}, err
	}
	return pagination.Page{Page: page, PerPage: perPage}, nil
}

// ParseUUIDParam reads a chi URL parameter as a UUID.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
