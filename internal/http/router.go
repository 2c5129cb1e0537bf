package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	CookieSecure       bool
}

type Handlers struct {
	Basket   *BasketHandler
	Listing  *ListingHandler
	Catalog  *CatalogHandler
	Auth     *AuthHandler
	Profile  *ProfileHandler
	Checkout *CheckoutHandler
	Comments *CommentsHandler
}

func NewRouter(cfg RouterConfig, hs Handlers, slugs ProductSlugChecker, log *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.Compress(5))
	r.Use(ProfileMiddleware(cfg.CookieSecure))
	r.Use(auth.Middleware)
	r.Use(SlugRedirectMiddleware(slugs, cfg.RequestTimeout, log))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// long-lived stream, outside the request timeout
		r.Get("/basket/events", hs.Basket.Events)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))

			r.Route("/basket", func(r chi.Router) {
				r.Get("/", hs.Basket.GetBasket)
				r.Delete("/", hs.Basket.ClearBasket)
				r.Post("/items", hs.Basket.AddItem)
				r.Patch("/items/{id}", hs.Basket.UpdateQuantity)
				r.Delete("/items/{id}", hs.Basket.RemoveItem)
				r.Post("/sync", hs.Basket.Sync)
			})

			r.Get("/listing", hs.Listing.GetListing)
			r.Post("/listing/next", hs.Listing.Next)

			r.Get("/categories", hs.Catalog.GetCategories)
			r.Get("/categories/{slug}", hs.Catalog.GetCategory)
			r.Get("/tags/{slug}", hs.Catalog.GetTag)
			r.Get("/products/sale", hs.Catalog.GetSaleProducts)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/otp", hs.Auth.SendOTP)
				r.Post("/verify", hs.Auth.Verify)
				r.Post("/logout", hs.Auth.Logout)
			})

			r.Get("/profile", hs.Profile.GetProfile)
			r.Put("/profile", hs.Profile.CompleteProfile)
			r.Get("/provinces", hs.Profile.GetProvinces)
			r.Get("/cities", hs.Profile.GetCities)
			r.Get("/orders", hs.Profile.GetOrders)

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", hs.Checkout.GetCheckout)
				r.Post("/address", hs.Checkout.SelectAddress)
				r.Post("/orders", hs.Checkout.SubmitOrder)
				r.Post("/confirm-transfer", hs.Checkout.ConfirmTransfer)
				r.Delete("/basket", hs.Checkout.DeleteBasket)
				r.Get("/callback", hs.Checkout.Callback)
			})

			r.Get("/products/{id}/comments", hs.Comments.List)
			r.Post("/products/{id}/comments", hs.Comments.Save)
			r.Put("/comments/{id}", hs.Comments.Update)
			r.Delete("/comments/{id}", hs.Comments.Delete)
			r.Post("/comments/{id}/replies", hs.Comments.Reply)
		})
	})

	return r
}
