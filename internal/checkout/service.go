package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/oboricienne/ordering/internal/cart"
	"github.com/oboricienne/ordering/internal/delivery"
	"github.com/oboricienne/ordering/internal/domain"
	"github.com/oboricienne/ordering/internal/events"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidMode    = errors.New("invalid delivery mode")
	ErrMissingAddress = errors.New("delivery orders need an address with a postal code")
)

// Order is the read-only capture of a cart handed to the kitchen once the
// external payment processor has confirmed the charge.
type Order struct {
	ID            string            `json:"id"`
	CartID        string            `json:"cart_id"`
	Items         []domain.LineItem `json:"items"`
	TotalItems    int               `json:"total_items"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	DeliveryFee   decimal.Decimal   `json:"delivery_fee"`
	Total         decimal.Decimal   `json:"total"`
	Mode          delivery.Mode     `json:"mode"`
	Address       *delivery.Address `json:"address,omitempty"`
	ScheduledFor  *time.Time        `json:"scheduled_for,omitempty"`
	CustomerNotes string            `json:"customer_notes,omitempty"`
	PaymentRef    string            `json:"payment_ref,omitempty"`
	PlacedAt      time.Time         `json:"placed_at"`
}

// Request carries the checkout form. PaymentRef is the opaque reference the
// payment processor returned; capture itself happens outside this service.
type Request struct {
	Mode          delivery.Mode
	Address       *delivery.Address
	ScheduledFor  *time.Time
	CustomerNotes string
	PaymentRef    string
}

type Service struct {
	publisher events.Publisher
	log       zerolog.Logger
}

func NewService(publisher events.Publisher, log zerolog.Logger) *Service {
	return &Service{
		publisher: publisher,
		log:       log,
	}
}

// PlaceOrder applies the delivery fee for the chosen mode, captures the
// final snapshot into an order, publishes the event and clears the cart.
// A publish failure is logged, not returned: the order is already placed
// and the customer must not see an error screen for it.
func (s *Service) PlaceOrder(ctx context.Context, cartID string, store *cart.Store, req Request) (*Order, error) {
	if !req.Mode.Valid() {
		return nil, ErrInvalidMode
	}
	if req.Mode == delivery.ModeDelivery && (req.Address == nil || req.Address.PostalCode == "") {
		return nil, ErrMissingAddress
	}

	snap := store.Snapshot()
	if len(snap.Items) == 0 {
		return nil, ErrEmptyCart
	}

	postal := ""
	if req.Address != nil {
		postal = req.Address.PostalCode
	}
	snap = store.SetDeliveryFee(ctx, delivery.Fee(req.Mode, postal))

	order := &Order{
		ID:            uuid.NewString(),
		CartID:        cartID,
		Items:         snap.Items,
		TotalItems:    snap.TotalItems,
		Subtotal:      snap.Subtotal,
		DeliveryFee:   snap.DeliveryFee,
		Total:         snap.GrandTotal,
		Mode:          req.Mode,
		Address:       req.Address,
		ScheduledFor:  req.ScheduledFor,
		CustomerNotes: req.CustomerNotes,
		PaymentRef:    req.PaymentRef,
		PlacedAt:      time.Now().UTC(),
	}

	err := s.publisher.Publish(ctx, events.OrderPlaced{
		OrderID:     order.ID,
		CartID:      order.CartID,
		Items:       order.Items,
		Subtotal:    order.Subtotal,
		DeliveryFee: order.DeliveryFee,
		Total:       order.Total,
		Mode:        string(order.Mode),
		PaymentRef:  order.PaymentRef,
		PlacedAt:    order.PlacedAt,
	})
	if err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("failed to publish order event")
	}

	store.Clear(ctx)
	return order, nil
}
