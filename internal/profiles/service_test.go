package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
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
		Repo:         NewRepository(conn),
		Addresses:    address.NewRepository(conn),
		Orders:       orders.NewRepository(conn),
		MediaBaseURL: "https://cdn.example.com",
	})
	require.NoError(t, err)
	return svc, conn
}

func TestGetOrCreateIsLazyAndStable(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.GetOrCreate(ctx, user, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user, first.ID)
	assert.Equal(t, "ada@example.com", first.Email)

	second, err := svc.GetOrCreate(ctx, user, "other@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", second.Email)
	assert.Equal(t, int64(1), dbtest.Count(t, conn, "profiles"))

	_, err = svc.GetOrCreate(ctx, uuid.Nil, "x@example.com")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestUpdateOnlyTouchesProvidedFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	name := "Ada Lovelace"
	avatar := "avatars/ada.png"
	updated, err := svc.Update(ctx, user, "ada@example.com", Input{FullName: &name, AvatarURL: &avatar})
	require.NoError(t, err)
	require.NotNil(t, updated.FullName)
	assert.Equal(t, name, *updated.FullName)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, "https://cdn.example.com/avatars/ada.png", *updated.AvatarURL)

	phone := "555-0100"
	updated, err = svc.Update(ctx, user, "ada@example.com", Input{Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, updated.FullName)
	assert.Equal(t, name, *updated.FullName)

	blank := "  "
	updated, err = svc.Update(ctx, user, "ada@example.com", Input{FullName: &blank})
	require.NoError(t, err)
	assert.Nil(t, updated.FullName)
	require.NotNil(t, updated.Phone)
}

func TestListCustomersAggregatesPaidOrders(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	buyer := uuid.New()
	browser := uuid.New()
	dbtest.SeedProfile(t, conn, buyer, "buyer@example.com")
	dbtest.SeedProfile(t, conn, browser, "browser@example.com")
	dbtest.SeedOrder(t, conn, buyer, "25.00", enums.PaymentStatusPaid)
	dbtest.SeedOrder(t, conn, buyer, "10.00", enums.PaymentStatusPending)

	list, err := svc.ListCustomers(ctx, "", pagination.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Items, 2)

	byID := map[uuid.UUID]CustomerSummary{}
	for _, item := range list.Items {
		byID[item.ID] = item
	}
	assert.Equal(t, int64(2), byID[buyer].OrderCount)
	assert.True(t, byID[buyer].TotalSpent.Equal(decimal.RequireFromString("25.00")), byID[buyer].TotalSpent.String())
	assert.Equal(t, "$25.00", byID[buyer].TotalSpentFormatted)
	assert.Equal(t, int64(0), byID[browser].OrderCount)
	assert.True(t, byID[browser].TotalSpent.IsZero())

	filtered, err := svc.ListCustomers(ctx, "BUYER", pagination.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), filtered.Total)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, buyer, filtered.Items[0].ID)
}

func TestGetCustomerIncludesAddressesAndRecentOrders(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	dbtest.SeedProfile(t, conn, user, "c@example.com")

	require.NoError(t, conn.Create(&models.Address{
		UserID:     user,
		FullName:   "C Customer",
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}).Error)
	for i := 0; i < recentOrderLimit+1; i++ {
		dbtest.SeedOrder(t, conn, user, "5.00", enums.PaymentStatusPaid)
		time.Sleep(2 * time.Millisecond)
	}

	detail, err := svc.GetCustomer(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "c@example.com", detail.Email)
	assert.Equal(t, int64(recentOrderLimit+1), detail.OrderCount)
	assert.True(t, detail.TotalSpent.Equal(decimal.RequireFromString("30.00")))
	assert.Len(t, detail.Addresses, 1)
	assert.Len(t, detail.RecentOrders, recentOrderLimit)

	_, err = svc.GetCustomer(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
