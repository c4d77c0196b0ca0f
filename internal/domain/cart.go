package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductInfo is the display data copied into a line item when a product is
// added. The cart keeps its own copy so a later catalog change does not
// silently reprice lines already in the basket.
type ProductInfo struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// ChoiceSelection is one picked option within one customization group
// (e.g. group "Sauce", option "Extra cheese", +1.50).
type ChoiceSelection struct {
	GroupID    string          `json:"group_id"`
	GroupName  string          `json:"group_name"`
	OptionID   string          `json:"option_id"`
	OptionName string          `json:"option_name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

// LineItem is one distinguishable cart entry.
type LineItem struct {
	ID        string            `json:"id"`
	ProductID string            `json:"product_id"`
	Product   ProductInfo       `json:"product"`
	Quantity  int               `json:"quantity"`
	Choices   []ChoiceSelection `json:"choices,omitempty"`
	Note      string            `json:"note,omitempty"`
	LineTotal decimal.Decimal   `json:"line_total"`
}

// Snapshot is the whole cart state at a point in time. TotalItems, Subtotal
// and GrandTotal are always derived from Items via Recalculate, never
// mutated on their own.
type Snapshot struct {
	Items       []LineItem      `json:"items"`
	TotalItems  int             `json:"total_items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	IsOpen      bool            `json:"is_open"`
}

func EmptySnapshot() Snapshot {
	return Snapshot{
		Items:       []LineItem{},
		Subtotal:    decimal.Zero,
		DeliveryFee: decimal.Zero,
		GrandTotal:  decimal.Zero,
	}
}

// LinePrice computes (base + sum of choice deltas) * quantity, rounded to
// two decimal places.
func LinePrice(base decimal.Decimal, choices []ChoiceSelection, quantity int) decimal.Decimal {
	unit := base
	for _, c := range choices {
		unit = unit.Add(c.PriceDelta)
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// MergeKey decides whether an add should grow an existing line or create a
// new one. Choices are sorted by group and option id so selection order
// does not split identical configurations into separate lines.
func MergeKey(productID string, choices []ChoiceSelection, note string) string {
	parts := make([]string, len(choices))
	for i, c := range choices {
		parts[i] = c.GroupID + "=" + c.OptionID
	}
	sort.Strings(parts)
	return productID + "|" + strings.Join(parts, ",") + "|" + note
}

// Recalculate returns a copy of the snapshot with the aggregate fields
// rederived from the line items and the current delivery fee.
func (s Snapshot) Recalculate() Snapshot {
	totalItems := 0
	subtotal := decimal.Zero
	for _, item := range s.Items {
		totalItems += item.Quantity
		subtotal = subtotal.Add(item.LineTotal)
	}
	s.TotalItems = totalItems
	s.Subtotal = subtotal.Round(2)
	s.GrandTotal = s.Subtotal.Add(s.DeliveryFee).Round(2)
	return s
}

// Clone returns a deep copy so callers can hold a snapshot without racing
// later mutations.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Items = make([]LineItem, len(s.Items))
	for i, item := range s.Items {
		out.Items[i] = item.clone()
	}
	return out
}

func (li LineItem) clone() LineItem {
	out := li
	if li.Choices != nil {
		out.Choices = make([]ChoiceSelection, len(li.Choices))
		copy(out.Choices, li.Choices)
	}
	return out
}
