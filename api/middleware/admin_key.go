package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const AdminKeyHeader = "x-admin-key"

// AdminKey rejects the request with 401 unless x-admin-key matches the
// configured key. Nothing downstream runs on a mismatch.
func AdminKey(key string, logg *logger.Logger) func(http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(key))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(strings.TrimSpace(r.Header.Get(AdminKeyHeader)))
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid admin key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
