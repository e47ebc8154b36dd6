package checkout

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	conn      *gorm.DB
	carts     cart.Service
	addresses address.Service
	checkout  Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	tx := db.Wrap(conn)
	catalog := products.NewCatalog(conn, "")
	cartRepo := cart.NewRepository(conn)

	carts, err := cart.NewService(cart.ServiceParams{Repo: cartRepo, Catalog: catalog, Tx: tx})
	require.NoError(t, err)
	addressRepo := address.NewRepository(conn)
	addresses, err := address.NewService(addressRepo, tx)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.ServiceParams{Repo: orders.NewRepository(conn), Catalog: catalog, Tx: tx})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Tx:        tx,
		Carts:     cartRepo,
		Addresses: addressRepo,
		Catalog:   catalog,
		Orders:    orderSvc,
	})
	require.NoError(t, err)
	return fixture{conn: conn, carts: carts, addresses: addresses, checkout: svc}
}

func (f fixture) address(t *testing.T, userID uuid.UUID) uuid.UUID {
	t.Helper()
	view, err := f.addresses.Create(context.Background(), userID, address.Input{
		FullName:   "Grace Hopper",
		Line1:      "1 Navy Way",
		City:       "Arlington",
		PostalCode: "22201",
		Country:    "US",
	})
	require.NoError(t, err)
	return view.ID
}

func stockOf(t *testing.T, conn *gorm.DB, variantID uuid.UUID) int {
	t.Helper()
	var v models.ProductVariant
	require.NoError(t, conn.Where("id = ?", variantID).First(&v).Error)
	return v.Stock
}

func aggregates() orders.Aggregates {
	return orders.Aggregates{
		Subtotal: decimal.RequireFromString("30"),
		Tax:      decimal.RequireFromString("2.40"),
		Shipping: decimal.RequireFromString("5"),
		Discount: decimal.Zero,
		Total:    decimal.RequireFromString("37.40"),
	}
}

func TestCheckoutConvertsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	_, variant := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Price: "10.00", Stock: 5})
	addressID := f.address(t, user)

	before, err := f.carts.AddItem(ctx, user, cart.AddItemInput{VariantID: variant.ID, Quantity: 3})
	require.NoError(t, err)

	order, err := f.checkout.Checkout(ctx, user, Input{ShippingAddressID: addressID, Aggregates: aggregates()})
	require.NoError(t, err)
	assert.Equal(t, user, order.UserID)
	assert.Equal(t, 3, order.ItemCount)
	assert.Equal(t, "$37.40", order.TotalFormatted)
	require.NotNil(t, order.BillingAddress)
	assert.Equal(t, "Arlington", order.BillingAddress.City)

	assert.Equal(t, 2, stockOf(t, f.conn, variant.ID))

	after, err := f.carts.GetActiveCart(ctx, user)
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, after.ID)
	assert.Empty(t, after.Items)
}

func TestCheckoutRollsBackOnShortStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	_, plenty := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 5})
	_, scarce := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 2})
	addressID := f.address(t, user)

	_, err := f.carts.AddItem(ctx, user, cart.AddItemInput{VariantID: plenty.ID, Quantity: 2})
	require.NoError(t, err)
	before, err := f.carts.AddItem(ctx, user, cart.AddItemInput{VariantID: scarce.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.ProductVariant{}).Where("id = ?", scarce.ID).Update("stock", 1).Error)

	_, err = f.checkout.Checkout(ctx, user, Input{ShippingAddressID: addressID, Aggregates: aggregates()})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	assert.Equal(t, 5, stockOf(t, f.conn, plenty.ID))
	assert.Equal(t, int64(0), dbtest.Count(t, f.conn, "orders"))
	assert.Equal(t, int64(0), dbtest.Count(t, f.conn, "order_items"))

	still, err := f.carts.GetActiveCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, before.ID, still.ID)
	assert.Len(t, still.Items, 2)
}

func TestCheckoutRejectsLinesNoLongerForSale(t *testing.T) {
	retire := map[string]func(conn *gorm.DB, product *models.Product, variant *models.ProductVariant) error{
		"archived product": func(conn *gorm.DB, product *models.Product, _ *models.ProductVariant) error {
			return conn.Model(&models.Product{}).Where("id = ?", product.ID).Update("status", enums.ProductStatusArchived).Error
		},
		"inactive variant": func(conn *gorm.DB, _ *models.Product, variant *models.ProductVariant) error {
			return conn.Model(&models.ProductVariant{}).Where("id = ?", variant.ID).Update("is_active", false).Error
		},
	}
	for name, apply := range retire {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			user := uuid.New()
			product, variant := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 5})
			addressID := f.address(t, user)

			before, err := f.carts.AddItem(ctx, user, cart.AddItemInput{VariantID: variant.ID, Quantity: 2})
			require.NoError(t, err)
			require.NoError(t, apply(f.conn, product, variant))

			_, err = f.checkout.Checkout(ctx, user, Input{ShippingAddressID: addressID, Aggregates: aggregates()})
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

			assert.Equal(t, 5, stockOf(t, f.conn, variant.ID))
			assert.Equal(t, int64(0), dbtest.Count(t, f.conn, "orders"))
			still, err := f.carts.GetActiveCart(ctx, user)
			require.NoError(t, err)
			assert.Equal(t, before.ID, still.ID)
		})
	}
}

func TestCheckoutRejectsEmptyCartAndForeignAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, stranger := uuid.New(), uuid.New()
	_, variant := dbtest.SeedVariant(t, f.conn, dbtest.VariantOpts{Stock: 5})
	mine := f.address(t, user)
	theirs := f.address(t, stranger)

	_, err := f.checkout.Checkout(ctx, user, Input{ShippingAddressID: mine})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.carts.AddItem(ctx, user, cart.AddItemInput{VariantID: variant.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.checkout.Checkout(ctx, user, Input{ShippingAddressID: theirs})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.checkout.Checkout(ctx, user, Input{ShippingAddressID: mine, BillingAddressID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.checkout.Checkout(ctx, user, Input{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Equal(t, 5, stockOf(t, f.conn, variant.ID))
}
