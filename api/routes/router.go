package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// NewRouter mounts the storefront, account and admin surfaces.
func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.RateLimit.Window, cfg.RateLimit.Limit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(apiPolicy, deps.RateLimiter, logg))

		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.Get("/products/{slug}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/categories", controllers.CategoryList(deps.Categories, logg))
		r.Get("/collections", controllers.CollectionList(deps.Collections, logg))
		r.Get("/collections/{slug}", controllers.CollectionDetail(deps.Collections, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Tokens, logg))
			r.Use(middleware.Idempotency(deps.Idempotency, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Cart, logg))
				r.Post("/", controllers.CartAddItem(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Put("/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(deps.Addresses, logg))
				r.Post("/", controllers.AddressCreate(deps.Addresses, logg))
				r.Get("/{id}", controllers.AddressGet(deps.Addresses, logg))
				r.Put("/{id}", controllers.AddressUpdate(deps.Addresses, logg))
				r.Delete("/{id}", controllers.AddressDelete(deps.Addresses, logg))
				r.Put("/{id}/default", controllers.AddressSetDefault(deps.Addresses, logg))
			})

			r.Get("/orders", controllers.OrderList(deps.Orders, logg))
			r.Get("/orders/{id}", controllers.OrderDetail(deps.Orders, logg))
			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Get("/profile", controllers.ProfileFetch(deps.Profiles, logg))
			r.Put("/profile", controllers.ProfileUpdate(deps.Profiles, logg))

			r.Get("/wishlist", controllers.WishlistList(deps.Wishlist, logg))
			r.Post("/wishlist", controllers.WishlistAdd(deps.Wishlist, logg))
			r.Delete("/wishlist/{productId}", controllers.WishlistRemove(deps.Wishlist, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminKey(cfg.Admin.Key, logg))
			r.Use(middleware.Idempotency(deps.Idempotency, logg))

			r.Get("/dashboard", controllers.AdminDashboard(deps.Dashboard, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminProductList(deps.Products, logg))
				r.Post("/", controllers.AdminProductCreate(deps.Products, logg))
				r.Get("/{id}", controllers.AdminProductGet(deps.Products, logg))
				r.Put("/{id}", controllers.AdminProductUpdate(deps.Products, logg))
				r.Delete("/{id}", controllers.AdminProductDelete(deps.Products, logg))

				r.Post("/{id}/variants", controllers.AdminVariantCreate(deps.Products, logg))
				r.Put("/{id}/variants/{variantId}", controllers.AdminVariantUpdate(deps.Products, logg))
				r.Delete("/{id}/variants/{variantId}", controllers.AdminVariantDelete(deps.Products, logg))

				r.Post("/{id}/images", controllers.AdminImageAdd(deps.Products, logg))
				r.Delete("/{id}/images/{imageId}", controllers.AdminImageDelete(deps.Products, logg))
				r.Put("/{id}/images/{imageId}/primary", controllers.AdminImageSetPrimary(deps.Products, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.AdminCategoryList(deps.Categories, logg))
				r.Post("/", controllers.AdminCategoryCreate(deps.Categories, logg))
				r.Put("/{id}", controllers.AdminCategoryUpdate(deps.Categories, logg))
				r.Delete("/{id}", controllers.AdminCategoryDelete(deps.Categories, logg))
			})

			r.Route("/collections", func(r chi.Router) {
				r.Get("/", controllers.AdminCollectionList(deps.Collections, logg))
				r.Post("/", controllers.AdminCollectionCreate(deps.Collections, logg))
				r.Get("/{id}", controllers.AdminCollectionGet(deps.Collections, logg))
				r.Put("/{id}", controllers.AdminCollectionUpdate(deps.Collections, logg))
				r.Delete("/{id}", controllers.AdminCollectionDelete(deps.Collections, logg))
				r.Put("/{id}/products", controllers.AdminCollectionSetProducts(deps.Collections, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
				r.Post("/", controllers.AdminOrderCreate(deps.Orders, logg))
				r.Get("/{id}", controllers.AdminOrderGet(deps.Orders, logg))
				r.Put("/{id}", controllers.AdminOrderUpdate(deps.Orders, logg))
			})

			r.Get("/customers", controllers.AdminCustomerList(deps.Profiles, logg))
			r.Get("/customers/{id}", controllers.AdminCustomerGet(deps.Profiles, logg))
		})
	})

	return r
}
