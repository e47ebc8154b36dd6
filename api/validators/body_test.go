package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type sampleBody struct {
	Name    string `json:"name" validate:"required,max=5"`
	Country string `json:"country" validate:"omitempty,len=2"`
}

func TestDecodeJSONBody(t *testing.T) {
	var ok sampleBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"tote","country":"US"}`))
	require.NoError(t, DecodeJSONBody(req, &ok))
	assert.Equal(t, "tote", ok.Name)

	var unknown sampleBody
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"tote","extra":1}`))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &unknown), pkgerrors.CodeValidation))

	var invalid sampleBody
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"toolong","country":"USA"}`))
	err := DecodeJSONBody(req, &invalid)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok2 := typed.Details().(map[string]string)
	require.True(t, ok2)
	assert.Equal(t, "must be at most 5", details["name"])
	assert.Equal(t, "must be exactly 2 characters", details["country"])
}

type orderBody struct {
	Items []orderLine `json:"items" validate:"required,min=1,dive"`
}

type orderLine struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

func TestDecodeJSONBodyReportsNestedPaths(t *testing.T) {
	var body orderBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[{"quantity":2},{"quantity":0}]}`))
	typed := pkgerrors.As(DecodeJSONBody(req, &body))
	require.NotNil(t, typed)
	details := typed.Details().(map[string]string)
	assert.Equal(t, "must be at least 1", details["items[1].quantity"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[]}`))
	typed = pkgerrors.As(DecodeJSONBody(req, &body))
	require.NotNil(t, typed)
	assert.Equal(t, "must contain at least 1 entries", typed.Details().(map[string]string)["items"])
}

func TestDecodeJSONBodyRejectsEmptyAndConcatenated(t *testing.T) {
	var body sampleBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}{"name":"b"}`))
	err = DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
