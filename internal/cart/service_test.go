package cart

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc  Service
	conn *gorm.DB
	reg  *prometheus.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Catalog: products.NewCatalog(conn, "https://cdn.example.com"),
		Tx:      db.Wrap(conn),
		Metrics: metrics.NewCartMetrics(reg),
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn, reg: reg}
}

func (f fixture) cartItems(t *testing.T) []models.CartItem {
	t.Helper()
	var items []models.CartItem
	require.NoError(t, f.conn.Order("created_at ASC").Find(&items).Error)
	return items
}

func (f fixture) rejections(t *testing.T, reason string) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "cart_rejections_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "reason" && label.GetValue() == reason {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestGetActiveCartCreatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()

	first, err := f.svc.GetActiveCart(ctx, user)
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.Empty(t, first.Items)
	assert.True(t, first.Subtotal.IsZero())

	second, err := f.svc.GetActiveCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), dbtest.Count(t, f.conn, "carts"))
}

func TestAddItemMergesUpToStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	_, variant := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 5, Price: "4.00"})

	_, err := f.svc.AddItem(ctx, user, AddItemInput{VariantID: variant.ID, Quantity: 3})
	require.NoError(t, err)
	view, err := f.svc.AddItem(ctx, user, AddItemInput{VariantID: variant.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 5, view.ItemCount)
	assert.Equal(t, "$20.00", view.SubtotalFormatted)

	_, err = f.svc.AddItem(ctx, user, AddItemInput{VariantID: variant.ID, Quantity: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	items := f.cartItems(t)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, float64(1), f.rejections(t, metrics.CartRejectInsufficientStock))
}

func TestAddItemAboveStockWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, variant := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 5})

	for _, qty := range []int{6, 7, 100} {
		_, err := f.svc.AddItem(ctx, uuid.New(), AddItemInput{VariantID: variant.ID, Quantity: qty})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "qty %d", qty)
	}
	assert.Empty(t, f.cartItems(t))

	view, err := f.svc.AddItem(ctx, uuid.New(), AddItemInput{VariantID: variant.ID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestAddItemMergeRechecksStockInsideUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	_, variant := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 5})

	_, err := f.svc.AddItem(ctx, user, AddItemInput{VariantID: variant.ID, Quantity: 2})
	require.NoError(t, err)

	// another request raised the line to the ceiling after our stock read
	require.NoError(t, f.conn.Model(&models.CartItem{}).Where("variant_id = ?", variant.ID).Update("quantity", 5).Error)

	_, err = f.svc.AddItem(ctx, user, AddItemInput{VariantID: variant.ID, Quantity: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 5, f.cartItems(t)[0].Quantity)
}

func TestAddItemSnapshotsCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	product, variant := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{
		ProductName: "Hoodie",
		VariantName: "Medium",
		SKU:         "HOOD-M",
		Price:       "50.00",
		Stock:       3,
		ImageURL:    "hoodie.jpg",
	})

	_, err := f.svc.AddItem(ctx, user, AddItemInput{VariantID: variant.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.ProductVariant{}).Where("id = ?", variant.ID).Update("price", decimal.RequireFromString("60.00")).Error)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", product.ID).Update("name", "Renamed").Error)

	view, err := f.svc.GetActiveCart(ctx, user)
	require.NoError(t, err)
	item := view.Items[0]
	assert.Equal(t, "Hoodie - Medium", item.ProductName)
	assert.Equal(t, "HOOD-M", item.SKU)
	assert.Equal(t, enums.CurrencyUSD, item.Currency)
	assert.True(t, decimal.RequireFromString("50").Equal(item.UnitPrice))
	require.NotNil(t, item.ImageURL)
	assert.Equal(t, "https://cdn.example.com/hoodie.jpg", *item.ImageURL)
}

func TestAddItemRejectsUnknownAndUnpurchasable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, inactive := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 5, Inactive: true})
	_, archived := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 5, ProductStatus: enums.ProductStatusArchived})

	for _, id := range []uuid.UUID{uuid.New(), inactive.ID, archived.ID} {
		_, err := f.svc.AddItem(ctx, uuid.New(), AddItemInput{VariantID: id, Quantity: 1})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	}
	assert.Equal(t, float64(3), f.rejections(t, metrics.CartRejectVariantNotFound))

	_, err := f.svc.AddItem(ctx, uuid.New(), AddItemInput{VariantID: inactive.ID, Quantity: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateItemQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	_, variant := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 4})

	view, err := f.svc.AddItem(ctx, user, AddItemInput{VariantID: variant.ID, Quantity: 1})
	require.NoError(t, err)
	itemID := view.Items[0].ID

	view, err = f.svc.UpdateItemQuantity(ctx, user, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)

	_, err = f.svc.UpdateItemQuantity(ctx, user, itemID, 5)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	_, err = f.svc.UpdateItemQuantity(ctx, user, uuid.New(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	view, err = f.svc.UpdateItemQuantity(ctx, user, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestOtherUsersCannotTouchItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, intruder := uuid.New(), uuid.New()
	_, variant := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 9})

	view, err := f.svc.AddItem(ctx, owner, AddItemInput{VariantID: variant.ID, Quantity: 2})
	require.NoError(t, err)
	itemID := view.Items[0].ID

	_, err = f.svc.UpdateItemQuantity(ctx, intruder, itemID, 7)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateItemQuantity(ctx, intruder, itemID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.RemoveItem(ctx, intruder, itemID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	items := f.cartItems(t)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, float64(3), f.rejections(t, metrics.CartRejectForbidden))
}

func TestItemsOfRetiredCartAreNotEditable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	_, variant := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 9})

	view, err := f.svc.AddItem(ctx, user, AddItemInput{VariantID: variant.ID, Quantity: 2})
	require.NoError(t, err)
	oldItemID := view.Items[0].ID
	require.NoError(t, NewRepository(f.conn).Deactivate(ctx, view.ID))

	_, err = f.svc.UpdateItemQuantity(ctx, user, oldItemID, 5)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	_, err = f.svc.RemoveItem(ctx, user, oldItemID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	fresh, err := f.svc.AddItem(ctx, user, AddItemInput{VariantID: variant.ID, Quantity: 1})
	require.NoError(t, err)
	require.NotEqual(t, view.ID, fresh.ID)

	_, err = f.svc.RemoveItem(ctx, user, oldItemID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	items := f.cartItems(t)
	require.Len(t, items, 2)
	for _, item := range items {
		if item.ID == oldItemID {
			assert.Equal(t, 2, item.Quantity)
		}
	}
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	_, a := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 3})
	_, b := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 3})

	_, err := f.svc.AddItem(ctx, user, AddItemInput{VariantID: a.ID, Quantity: 1})
	require.NoError(t, err)
	view, err := f.svc.AddItem(ctx, user, AddItemInput{VariantID: b.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	view, err = f.svc.RemoveItem(ctx, user, view.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	view, err = f.svc.Clear(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, int64(0), dbtest.Count(t, f.conn, "cart_items"))
}
