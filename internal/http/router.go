package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the storefront-facing API.
func NewRouter(cartHandler *CartHandler, checkoutHandler *CheckoutHandler, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
			r.Put("/items/{item_id}/customizations", cartHandler.UpdateCustomizations)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
			r.Put("/delivery-fee", cartHandler.SetDeliveryFee)
			r.Post("/toggle", cartHandler.ToggleCart)
		})
		r.Post("/checkout", checkoutHandler.PlaceOrder)
	})

	return r
}
