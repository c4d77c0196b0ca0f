package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oboricienne/ordering/internal/cart"
	"github.com/oboricienne/ordering/internal/catalog"
	"github.com/oboricienne/ordering/internal/delivery"
)

// ProductFetcher is what the cart handler needs from the catalog.
// Consumers define this interface, not the REST client.
type ProductFetcher interface {
	Product(ctx context.Context, slug string) (*catalog.Product, error)
}

type CartHandler struct {
	carts   *cart.Manager
	catalog ProductFetcher
	timeout time.Duration
}

func NewCartHandler(carts *cart.Manager, catalog ProductFetcher, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalog,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string              `json:"product_id"`
	Quantity  int                 `json:"quantity"`
	Note      string              `json:"note,omitempty"`
	Choices   []catalog.ChoiceRef `json:"choices,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type UpdateChoicesRequestDTO struct {
	Choices []catalog.ChoiceRef `json:"choices"`
}

type DeliveryFeeRequestDTO struct {
	Mode       delivery.Mode `json:"mode"`
	PostalCode string        `json:"postal_code"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), cartIDFromContext(r.Context()))
	respondJSON(w, http.StatusOK, store.Snapshot())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.Product(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "could not reach the catalog")
		return
	}

	choices, err := product.ResolveChoices(req.Choices)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_choices", err.Error())
		return
	}

	store := h.carts.Get(ctx, cartIDFromContext(r.Context()))
	snap, err := store.AddItem(ctx, product.Info(), choices, req.Quantity, req.Note)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, snap)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Zero and negative quantities remove the line, same as the cart UI's
	// minus button bottoming out.
	store := h.carts.Get(r.Context(), cartIDFromContext(r.Context()))
	respondJSON(w, http.StatusOK, store.SetQuantity(r.Context(), itemID, req.Quantity))
}

func (h *CartHandler) UpdateCustomizations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	itemID := chi.URLParam(r, "item_id")

	var req UpdateChoicesRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	store := h.carts.Get(ctx, cartIDFromContext(r.Context()))
	line, ok := store.Item(itemID)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "line item not found")
		return
	}

	product, err := h.catalog.Product(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "could not reach the catalog")
		return
	}

	choices, err := product.ResolveChoices(req.Choices)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_choices", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, store.UpdateCustomizations(ctx, itemID, choices))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	store := h.carts.Get(r.Context(), cartIDFromContext(r.Context()))
	respondJSON(w, http.StatusOK, store.RemoveItem(r.Context(), itemID))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), cartIDFromContext(r.Context()))
	respondJSON(w, http.StatusOK, store.Clear(r.Context()))
}

func (h *CartHandler) ToggleCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), cartIDFromContext(r.Context()))
	respondJSON(w, http.StatusOK, store.Toggle(r.Context()))
}

// SetDeliveryFee computes the fee for the requested mode and postal code
// from the zone table and applies it to the cart.
func (h *CartHandler) SetDeliveryFee(w http.ResponseWriter, r *http.Request) {
	var req DeliveryFeeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !req.Mode.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_mode", "mode must be DELIVERY, PICKUP or DINE_IN")
		return
	}

	fee := delivery.Fee(req.Mode, req.PostalCode)
	store := h.carts.Get(r.Context(), cartIDFromContext(r.Context()))
	respondJSON(w, http.StatusOK, store.SetDeliveryFee(r.Context(), fee))
}
