package categories

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), "https://cdn.example.com")
	require.NoError(t, err)
	ctx := context.Background()

	image := "cats/shoes.png"
	shoes, err := svc.Create(ctx, Input{Name: "Shoes", ImageURL: &image, SortOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, "shoes", shoes.Slug)
	assert.True(t, shoes.IsActive)
	require.NotNil(t, shoes.ImageURL)
	assert.Equal(t, "https://cdn.example.com/cats/shoes.png", *shoes.ImageURL)

	inactive := false
	hidden, err := svc.Create(ctx, Input{Name: "Hidden", IsActive: &inactive, ParentID: &shoes.ID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Input{Name: "Dup", Slug: "shoes"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	missing := uuid.New()
	_, err = svc.Create(ctx, Input{Name: "Orphan", ParentID: &missing})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	updated, err := svc.Update(ctx, hidden.ID, Input{Name: "Boots", Slug: "boots", IsActive: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "boots", updated.Slug)
	assert.True(t, updated.IsActive)
	assert.Nil(t, updated.ParentID)

	product, _ := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{})
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", product.ID).Update("category_id", shoes.ID).Error)
	require.NoError(t, svc.Delete(ctx, shoes.ID))

	var reloaded models.Product
	require.NoError(t, conn.Where("id = ?", product.ID).First(&reloaded).Error)
	assert.Nil(t, reloaded.CategoryID)

	err = svc.Delete(ctx, shoes.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func boolPtr(v bool) *bool { return &v }
