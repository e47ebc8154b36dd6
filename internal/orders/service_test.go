package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Catalog: products.NewCatalog(conn, "https://cdn.example.com"),
		Tx:      db.Wrap(conn),
		Now:     func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc, conn
}

func amounts(subtotal, total string) Aggregates {
	return Aggregates{
		Subtotal: decimal.RequireFromString(subtotal),
		Tax:      decimal.Zero,
		Shipping: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.RequireFromString(total),
	}
}

func TestCreateSnapshotsSurviveCatalogEdits(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	product, variant := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{
		ProductName: "Lamp",
		SKU:         "LAMP-1",
		Price:       "50.00",
		Stock:       5,
		ImageURL:    "lamp.jpg",
	})

	created, err := svc.Create(ctx, CreateInput{
		UserID:          user,
		Lines:           []LineInput{{VariantID: variant.ID, Quantity: 2}},
		ShippingAddress: &types.AddressSnapshot{FullName: "Ada", Line1: "1 Main", City: "Paris", PostalCode: "75001", Country: "FR"},
		Aggregates:      amounts("100.00", "100.00"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.OrderNumber, "SF-20250301-"))
	assert.Equal(t, enums.OrderStatusPending, created.Status)
	assert.Equal(t, enums.PaymentStatusPending, created.PaymentStatus)
	assert.Equal(t, "$100.00", created.TotalFormatted)
	assert.Equal(t, 2, created.ItemCount)
	require.Len(t, created.Items, 1)
	assert.True(t, decimal.RequireFromString("100").Equal(created.Items[0].LineTotal))

	require.NoError(t, conn.Model(&models.ProductVariant{}).Where("id = ?", variant.ID).Update("price", decimal.RequireFromString("60.00")).Error)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", product.ID).Update("name", "Renamed Lamp").Error)
	require.NoError(t, conn.Model(&models.ProductImage{}).Where("product_id = ?", product.ID).Update("url", "other.jpg").Error)

	fetched, err := svc.GetForUser(ctx, user, created.ID)
	require.NoError(t, err)
	item := fetched.Items[0]
	assert.Equal(t, "Lamp", item.ProductName)
	assert.Equal(t, "LAMP-1", item.SKU)
	assert.True(t, decimal.RequireFromString("50").Equal(item.UnitPrice))
	require.NotNil(t, item.ImageURL)
	assert.Equal(t, "https://cdn.example.com/lamp.jpg", *item.ImageURL)
	require.NotNil(t, fetched.ShippingAddress)
	assert.Equal(t, "Paris", fetched.ShippingAddress.City)
}

func TestCreateValidation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	_, variant := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{Stock: 1})

	cases := map[string]CreateInput{
		"no user":   {Lines: []LineInput{{VariantID: variant.ID, Quantity: 1}}},
		"no lines":  {UserID: uuid.New()},
		"zero qty":  {UserID: uuid.New(), Lines: []LineInput{{VariantID: variant.ID}}},
		"negative":  {UserID: uuid.New(), Lines: []LineInput{{VariantID: variant.ID, Quantity: 1}}, Aggregates: Aggregates{Tax: decimal.NewFromInt(-1)}},
		"bad money": {UserID: uuid.New(), Lines: []LineInput{{VariantID: variant.ID, Quantity: 1}}, Currency: "XYZ"},
	}
	for name, input := range cases {
		_, err := svc.Create(ctx, input)
		require.Error(t, err, name)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}

	_, err := svc.Create(ctx, CreateInput{UserID: uuid.New(), Lines: []LineInput{{VariantID: uuid.New(), Quantity: 1}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, int64(0), dbtest.Count(t, conn, "orders"))
}

func TestCreateRejectsMixedCurrencies(t *testing.T) {
	svc, conn := newTestService(t)
	_, usd := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{Stock: 1})
	_, eur := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{Stock: 1})
	require.NoError(t, conn.Model(&models.ProductVariant{}).Where("id = ?", eur.ID).Update("currency", enums.CurrencyEUR).Error)

	_, err := svc.Create(context.Background(), CreateInput{
		UserID: uuid.New(),
		Lines:  []LineInput{{VariantID: usd.ID, Quantity: 1}, {VariantID: eur.ID, Quantity: 1}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUserScopedReads(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	_, variant := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{Stock: 10})

	var created *View
	for i := 0; i < 3; i++ {
		var err error
		created, err = svc.Create(ctx, CreateInput{UserID: owner, Lines: []LineInput{{VariantID: variant.ID, Quantity: 1}}, Aggregates: amounts("10", "10")})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, CreateInput{UserID: other, Lines: []LineInput{{VariantID: variant.ID, Quantity: 1}}, Aggregates: amounts("10", "10")})
	require.NoError(t, err)

	page, err := svc.ListForUser(ctx, owner, pagination.Page{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	_, err = svc.GetForUser(ctx, other, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = svc.GetForUser(ctx, owner, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAdminUpdateKeepsItems(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	_, variant := dbtest.SeedVariant(t, conn, dbtest.VariantOpts{Price: "20.00", Stock: 3})

	created, err := svc.Create(ctx, CreateInput{UserID: uuid.New(), Lines: []LineInput{{VariantID: variant.ID, Quantity: 1}}, Aggregates: amounts("20", "20")})
	require.NoError(t, err)

	shipped := enums.OrderStatusShipped
	paid := enums.PaymentStatusPaid
	total := decimal.RequireFromString("25.50")
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Status: &shipped, PaymentStatus: &paid, Total: &total})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	assert.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, "$25.50", updated.TotalFormatted)
	require.Len(t, updated.Items, 1)
	assert.True(t, decimal.RequireFromString("20").Equal(updated.Items[0].UnitPrice))

	bogus := enums.OrderStatus("teleported")
	_, err = svc.Update(ctx, created.ID, UpdateInput{Status: &bogus})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Update(ctx, uuid.New(), UpdateInput{Status: &shipped})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	list, err := svc.List(ctx, Filters{Status: enums.OrderStatusShipped}, pagination.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	list, err = svc.List(ctx, Filters{PaymentStatus: enums.PaymentStatusFailed}, pagination.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.Total)
}
