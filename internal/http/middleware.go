package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const cartCookie = "obr_cart_id"

// Carts ride a long-lived cookie, the server-side stand-in for the
// storefront's per-browser local storage.
const cartCookieMaxAge = int(90 * 24 * time.Hour / time.Second)

// SessionMiddleware makes sure every request carries a cart id: an existing
// cookie is reused, otherwise a fresh id is minted and set.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cartID := ""
		if c, err := r.Cookie(cartCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				cartID = c.Value
			}
		}

		if cartID == "" {
			cartID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     cartCookie,
				Value:    cartID,
				Path:     "/",
				MaxAge:   cartCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), "cart_id", cartID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func cartIDFromContext(ctx context.Context) string {
	if cartID, ok := ctx.Value("cart_id").(string); ok {
		return cartID
	}
	return ""
}
