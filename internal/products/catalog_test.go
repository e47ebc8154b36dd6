package products

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogGetVariantSnapshot(t *testing.T) {
	conn := dbtest.Open(t)
	catalog := NewCatalog(conn, "https://cdn.example.com/")
	ctx := context.Background()

	_, variant := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{ProductName: "Tee", VariantName: "Large", SKU: "TEE-L", Price: "19.99", Stock: 4})
	snap, err := catalog.GetVariant(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tee - Large", snap.ProductName)
	assert.Equal(t, "TEE-L", snap.SKU)
	assert.Equal(t, "19.99", snap.Price.StringFixed(2))
	assert.Equal(t, 4, snap.Stock)
	assert.True(t, snap.Purchasable)

	_, draft := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{ProductName: "Draft", VariantName: "Draft", ProductStatus: enums.ProductStatusDraft})
	snap, err = catalog.GetVariant(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", snap.ProductName)
	assert.False(t, snap.Purchasable)

	_, err = catalog.GetVariant(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCatalogPrimaryImage(t *testing.T) {
	conn := dbtest.Open(t)
	catalog := NewCatalog(conn, "https://cdn.example.com/")
	ctx := context.Background()

	withImage, _ := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{ImageURL: "/tee.png"})
	url, err := catalog.GetPrimaryImage(ctx, withImage.ID)
	require.NoError(t, err)
	require.NotNil(t, url)
	assert.Equal(t, "https://cdn.example.com/tee.png", *url)

	bare, _ := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{})
	url, err = catalog.GetPrimaryImage(ctx, bare.ID)
	require.NoError(t, err)
	assert.Nil(t, url)
}

func TestCatalogDecrementStockNeverNegative(t *testing.T) {
	conn := dbtest.Open(t)
	catalog := NewCatalog(conn, "")
	ctx := context.Background()
	_, variant := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{Stock: 3})

	require.NoError(t, catalog.DecrementStock(ctx, variant.ID, 2))
	err := catalog.DecrementStock(ctx, variant.ID, 2)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	snap, err := catalog.GetVariant(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Stock)
}
