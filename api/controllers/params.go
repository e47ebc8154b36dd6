package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const maxSearchLen = 200

func requireIdentity(r *http.Request) (auth.Identity, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok || identity.UserID == uuid.Nil {
		return auth.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return identity, nil
}
