package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/oboricienne/ordering/internal/domain"
	"github.com/oboricienne/ordering/internal/storage"
)

var ErrInvalidProduct = errors.New("product must have an id and a non-negative base price")

// Store is the single source of truth for one cart. Every mutation
// recomputes the line and aggregate totals, swaps the in-memory snapshot
// and then writes the whole snapshot to durable storage. A failed write is
// logged and the in-memory state stays authoritative for the session.
type Store struct {
	key     string
	storage storage.SnapshotStore
	log     zerolog.Logger

	mu    sync.Mutex
	state domain.Snapshot
}

// NewStore restores the snapshot stored under key. A missing or corrupt
// snapshot yields an empty cart; restore problems never fail construction.
func NewStore(ctx context.Context, key string, st storage.SnapshotStore, log zerolog.Logger) *Store {
	s := &Store{
		key:     key,
		storage: st,
		log:     log.With().Str("cart", key).Logger(),
		state:   domain.EmptySnapshot(),
	}

	snap, err := st.Load(ctx, key)
	switch {
	case err == nil:
		s.state = snap.Recalculate()
	case errors.Is(err, storage.ErrNotFound):
		// first use, keep the empty cart
	default:
		s.log.Warn().Err(err).Msg("could not restore cart, starting empty")
	}

	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Item looks up a line item by id.
func (s *Store) Item(lineID string) (domain.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.state.Items {
		if item.ID == lineID {
			return item, true
		}
	}
	return domain.LineItem{}, false
}

// AddItem merges the product into an existing line when the product id,
// customization set and note all match, otherwise appends a new line with a
// fresh id. A quantity below 1 is clamped to 1.
func (s *Store) AddItem(ctx context.Context, product domain.ProductInfo, choices []domain.ChoiceSelection, quantity int, note string) (domain.Snapshot, error) {
	if product.ID == "" || product.BasePrice.IsNegative() {
		return s.Snapshot(), ErrInvalidProduct
	}
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.MergeKey(product.ID, choices, note)
	merged := false
	for i, item := range s.state.Items {
		if domain.MergeKey(item.ProductID, item.Choices, item.Note) == key {
			item.Quantity += quantity
			item.LineTotal = domain.LinePrice(item.Product.BasePrice, item.Choices, item.Quantity)
			s.state.Items[i] = item
			merged = true
			break
		}
	}

	if !merged {
		line := domain.LineItem{
			ID:        uuid.NewString(),
			ProductID: product.ID,
			Product:   product,
			Quantity:  quantity,
			Choices:   append([]domain.ChoiceSelection(nil), choices...),
			Note:      note,
			LineTotal: domain.LinePrice(product.BasePrice, choices, quantity),
		}
		s.state.Items = append(s.state.Items, line)
	}

	s.state = s.state.Recalculate()
	s.persist(ctx)
	return s.state.Clone(), nil
}

// RemoveItem deletes the line with the given id. Removing an unknown id is
// a no-op, so a double-fired removal stays harmless.
func (s *Store) RemoveItem(ctx context.Context, lineID string) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.state.Items[:0]
	for _, item := range s.state.Items {
		if item.ID != lineID {
			items = append(items, item)
		}
	}
	s.state.Items = items

	s.state = s.state.Recalculate()
	s.persist(ctx)
	return s.state.Clone()
}

// SetQuantity updates a line's quantity. A quantity of zero or below
// removes the line. An unknown id is a no-op.
func (s *Store) SetQuantity(ctx context.Context, lineID string, quantity int) domain.Snapshot {
	if quantity <= 0 {
		return s.RemoveItem(ctx, lineID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i, item := range s.state.Items {
		if item.ID == lineID {
			item.Quantity = quantity
			item.LineTotal = domain.LinePrice(item.Product.BasePrice, item.Choices, quantity)
			s.state.Items[i] = item
			found = true
			break
		}
	}
	if !found {
		s.log.Debug().Str("line_id", lineID).Msg("set quantity on unknown line item")
		return s.state.Clone()
	}

	s.state = s.state.Recalculate()
	s.persist(ctx)
	return s.state.Clone()
}

// UpdateCustomizations replaces a line's choice set and recomputes its
// total. The line is not re-merged with another line that may now have the
// same configuration. An unknown id is a no-op.
func (s *Store) UpdateCustomizations(ctx context.Context, lineID string, choices []domain.ChoiceSelection) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i, item := range s.state.Items {
		if item.ID == lineID {
			item.Choices = append([]domain.ChoiceSelection(nil), choices...)
			item.LineTotal = domain.LinePrice(item.Product.BasePrice, item.Choices, item.Quantity)
			s.state.Items[i] = item
			found = true
			break
		}
	}
	if !found {
		s.log.Debug().Str("line_id", lineID).Msg("update customizations on unknown line item")
		return s.state.Clone()
	}

	s.state = s.state.Recalculate()
	s.persist(ctx)
	return s.state.Clone()
}

// SetDeliveryFee records the externally computed fee and refreshes the
// grand total. The fee itself comes from the delivery zone table.
func (s *Store) SetDeliveryFee(ctx context.Context, fee decimal.Decimal) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.DeliveryFee = fee
	s.state = s.state.Recalculate()
	s.persist(ctx)
	return s.state.Clone()
}

// Clear empties the cart and resets every money field including the
// delivery fee. Only the visibility flag survives.
func (s *Store) Clear(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	open := s.state.IsOpen
	s.state = domain.EmptySnapshot()
	s.state.IsOpen = open

	s.persist(ctx)
	return s.state.Clone()
}

// Toggle flips the cart's visibility flag.
func (s *Store) Toggle(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsOpen = !s.state.IsOpen
	s.persist(ctx)
	return s.state.Clone()
}

// Open marks the cart as visible.
func (s *Store) Open(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsOpen = true
	s.persist(ctx)
	return s.state.Clone()
}

// Close marks the cart as hidden.
func (s *Store) Close(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsOpen = false
	s.persist(ctx)
	return s.state.Clone()
}

// persist writes the current snapshot. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) {
	if err := s.storage.Save(ctx, s.key, s.state); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist cart snapshot")
	}
}
