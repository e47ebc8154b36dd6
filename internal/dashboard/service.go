// Package dashboard computes the admin overview. Each figure is an
// independent read, so they are fetched concurrently.
package dashboard

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	recentOrderLimit = 5
	lowStockLimit    = 20
)

type LowStockItem struct {
	VariantID   string `json:"variant_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name"`
	SKU         string `json:"sku"`
	Stock       int    `json:"stock"`
}

type Summary struct {
	Revenue            decimal.Decimal `json:"revenue"`
	RevenueFormatted   string          `json:"revenue_formatted"`
	OrderCount         int64           `json:"order_count"`
	CustomerCount      int64           `json:"customer_count"`
	ActiveProductCount int64           `json:"active_product_count"`
	LowStockThreshold  int             `json:"low_stock_threshold"`
	LowStock           []LowStockItem  `json:"low_stock"`
	RecentOrders       []orders.View   `json:"recent_orders"`
}

type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type service struct {
	repo      *Repository
	threshold int
}

func NewService(repo *Repository, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if lowStockThreshold < 0 {
		return nil, fmt.Errorf("low stock threshold must be non-negative")
	}
	return &service{repo: repo, threshold: lowStockThreshold}, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	var (
		revenue  decimal.Decimal
		ordersN  int64
		users    int64
		active   int64
		lowStock []LowStockRow
		recent   []models.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		revenue, err = s.repo.PaidRevenue(gctx)
		return wrap(err, "sum revenue")
	})
	g.Go(func() (err error) {
		ordersN, err = s.repo.CountOrders(gctx)
		return wrap(err, "count orders")
	})
	g.Go(func() (err error) {
		users, err = s.repo.CountCustomers(gctx)
		return wrap(err, "count customers")
	})
	g.Go(func() (err error) {
		active, err = s.repo.CountActiveProducts(gctx)
		return wrap(err, "count products")
	})
	g.Go(func() (err error) {
		lowStock, err = s.repo.LowStock(gctx, s.threshold, lowStockLimit)
		return wrap(err, "load low stock")
	})
	g.Go(func() (err error) {
		recent, err = s.repo.RecentOrders(gctx, recentOrderLimit)
		return wrap(err, "load recent orders")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Summary{
		Revenue:            revenue,
		RevenueFormatted:   money.Format(revenue, enums.CurrencyUSD),
		OrderCount:         ordersN,
		CustomerCount:      users,
		ActiveProductCount: active,
		LowStockThreshold:  s.threshold,
		LowStock:           make([]LowStockItem, 0, len(lowStock)),
		RecentOrders:       make([]orders.View, 0, len(recent)),
	}
	for _, row := range lowStock {
		out.LowStock = append(out.LowStock, LowStockItem{
			VariantID:   row.VariantID.String(),
			ProductID:   row.ProductID.String(),
			ProductName: row.ProductName,
			VariantName: row.VariantName,
			SKU:         row.SKU,
			Stock:       row.Stock,
		})
	}
	for _, o := range recent {
		out.RecentOrders = append(out.RecentOrders, orders.ToView(o))
	}
	return out, nil
}

func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
