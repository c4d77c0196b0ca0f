package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/oboricienne/ordering/internal/cart"
	"github.com/oboricienne/ordering/internal/checkout"
	"github.com/oboricienne/ordering/internal/delivery"
)

type CheckoutHandler struct {
	carts    *cart.Manager
	checkout *checkout.Service
	timeout  time.Duration
}

func NewCheckoutHandler(carts *cart.Manager, checkout *checkout.Service, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		carts:    carts,
		checkout: checkout,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	Mode          delivery.Mode     `json:"mode"`
	Address       *delivery.Address `json:"address,omitempty"`
	ScheduledFor  *time.Time        `json:"scheduled_for,omitempty"`
	CustomerNotes string            `json:"customer_notes,omitempty"`
	PaymentRef    string            `json:"payment_ref"`
}

// PlaceOrder finalizes the cart once the payment processor has confirmed
// the charge (the client sends the processor's reference).
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cartID := cartIDFromContext(r.Context())
	store := h.carts.Get(ctx, cartID)

	order, err := h.checkout.PlaceOrder(ctx, cartID, store, checkout.Request{
		Mode:          req.Mode,
		Address:       req.Address,
		ScheduledFor:  req.ScheduledFor,
		CustomerNotes: req.CustomerNotes,
		PaymentRef:    req.PaymentRef,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
		case errors.Is(err, checkout.ErrInvalidMode):
			respondError(w, http.StatusBadRequest, "invalid_mode", "mode must be DELIVERY, PICKUP or DINE_IN")
		case errors.Is(err, checkout.ErrMissingAddress):
			respondError(w, http.StatusBadRequest, "missing_address", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "could not place order")
		}
		return
	}

	respondJSON(w, http.StatusCreated, order)
}
