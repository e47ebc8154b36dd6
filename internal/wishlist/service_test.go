package wishlist

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistAddIsIdempotent(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), "https://cdn.example.com")
	require.NoError(t, err)
	ctx := context.Background()
	user := uuid.New()
	product, _ := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{ProductName: "Scarf", ImageURL: "scarf.jpg"})

	require.NoError(t, svc.Add(ctx, user, product.ID))
	require.NoError(t, svc.Add(ctx, user, product.ID))

	list, err := svc.List(ctx, user, pagination.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Scarf", list.Items[0].Product.Name)
	require.NotNil(t, list.Items[0].Product.PrimaryImageURL)
	assert.Equal(t, "https://cdn.example.com/scarf.jpg", *list.Items[0].Product.PrimaryImageURL)

	other, err := svc.List(ctx, uuid.New(), pagination.Page{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestWishlistUnknownProductAndRemove(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), "")
	require.NoError(t, err)
	ctx := context.Background()
	user := uuid.New()

	err = svc.Add(ctx, user, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	product, _ := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{})
	require.NoError(t, svc.Add(ctx, user, product.ID))
	require.NoError(t, svc.Remove(ctx, user, product.ID))
	err = svc.Remove(ctx, user, product.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
