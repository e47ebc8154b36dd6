package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func TestLoggingRecordsRouteAndStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	r := chi.NewRouter()
	r.Use(Logging(logg))
	r.Get("/api/products/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/linen-tote", nil))
	out := buf.String()
	assert.Contains(t, out, `"message":"request.complete"`)
	assert.Contains(t, out, `"route":"/api/products/{slug}"`)
	assert.Contains(t, out, `"status":404`)

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Zero(t, buf.Len(), "health checks log at debug")
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"abc":          "abc",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range cases {
		assert.Equal(t, want, bearerToken(header), "header %q", header)
	}
}
