package routes

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/collections"
	"github.com/angelmondragon/storefront-backend/internal/dashboard"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/profiles"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Deps carries everything the router mounts. Redis-backed stores may be nil,
// which turns rate limiting and idempotency into pass-throughs.
type Deps struct {
	Tokens      middleware.TokenValidator
	Idempotency redis.IdempotencyStore
	RateLimiter redis.RateLimiter
	Pingers     map[string]controllers.Pinger
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Products    products.Service
	Categories  categories.Service
	Collections collections.Service
	Cart        cart.Service
	Addresses   address.Service
	Orders      orders.Service
	Checkout    checkout.Service
	Profiles    profiles.Service
	Wishlist    wishlist.Service
	Dashboard   dashboard.Service
}

// NewServiceDeps builds every domain service over one database client.
// Metric collectors are registered on reg when it is non-nil.
func NewServiceDeps(cfg *config.Config, client *db.Client, reg prometheus.Registerer) (Deps, error) {
	conn := client.DB()
	base := cfg.Storage.PublicBaseURL
	catalog := products.NewCatalog(conn, base)

	var deps Deps
	var cartMetrics *metrics.CartMetrics
	if reg != nil {
		deps.HTTPMetrics = metrics.NewHTTPMetrics(reg)
		cartMetrics = metrics.NewCartMetrics(reg)
	}

	var err error
	if deps.Products, err = products.NewService(products.ServiceParams{
		Repo:         products.NewRepository(conn),
		Tx:           client,
		MediaBaseURL: base,
	}); err != nil {
		return Deps{}, fmt.Errorf("products service: %w", err)
	}
	if deps.Categories, err = categories.NewService(categories.NewRepository(conn), client, base); err != nil {
		return Deps{}, fmt.Errorf("categories service: %w", err)
	}
	if deps.Collections, err = collections.NewService(collections.NewRepository(conn), client, base); err != nil {
		return Deps{}, fmt.Errorf("collections service: %w", err)
	}

	cartRepo := cart.NewRepository(conn)
	if deps.Cart, err = cart.NewService(cart.ServiceParams{
		Repo:    cartRepo,
		Catalog: catalog,
		Tx:      client,
		Metrics: cartMetrics,
	}); err != nil {
		return Deps{}, fmt.Errorf("cart service: %w", err)
	}

	addressRepo := address.NewRepository(conn)
	if deps.Addresses, err = address.NewService(addressRepo, client); err != nil {
		return Deps{}, fmt.Errorf("address service: %w", err)
	}

	orderRepo := orders.NewRepository(conn)
	if deps.Orders, err = orders.NewService(orders.ServiceParams{
		Repo:    orderRepo,
		Catalog: catalog,
		Tx:      client,
	}); err != nil {
		return Deps{}, fmt.Errorf("orders service: %w", err)
	}
	if deps.Checkout, err = checkout.NewService(checkout.ServiceParams{
		Tx:        client,
		Carts:     cartRepo,
		Addresses: addressRepo,
		Catalog:   catalog,
		Orders:    deps.Orders,
	}); err != nil {
		return Deps{}, fmt.Errorf("checkout service: %w", err)
	}

	if deps.Profiles, err = profiles.NewService(profiles.ServiceParams{
		Repo:         profiles.NewRepository(conn),
		Addresses:    addressRepo,
		Orders:       orderRepo,
		MediaBaseURL: base,
	}); err != nil {
		return Deps{}, fmt.Errorf("profiles service: %w", err)
	}
	if deps.Wishlist, err = wishlist.NewService(wishlist.NewRepository(conn), base); err != nil {
		return Deps{}, fmt.Errorf("wishlist service: %w", err)
	}
	if deps.Dashboard, err = dashboard.NewService(dashboard.NewRepository(conn), cfg.Dashboard.LowStockThreshold); err != nil {
		return Deps{}, fmt.Errorf("dashboard service: %w", err)
	}

	deps.Pingers = map[string]controllers.Pinger{"database": client}
	return deps, nil
}
