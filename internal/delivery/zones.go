package delivery

import "github.com/shopspring/decimal"

// Mode is how the customer receives the order.
type Mode string

const (
	ModeDelivery Mode = "DELIVERY"
	ModePickup   Mode = "PICKUP"
	ModeDineIn   Mode = "DINE_IN"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeDelivery, ModePickup, ModeDineIn:
		return true
	}
	return false
}

// Address is the delivery destination. Only the postal code matters for the
// fee; the rest is passed through to the order.
type Address struct {
	Phone        string `json:"phone"`
	Street       string `json:"street"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Instructions string `json:"instructions,omitempty"`
}

// Postal zones around Évreux. The restaurant delivers free in town,
// charges 1.50 for the close ring and 3.00 beyond.
var (
	freeZone  = map[string]bool{"27000": true, "27100": true}
	nearZone  = map[string]bool{"27930": true, "27950": true}
	nearFee   = decimal.NewFromFloat(1.50)
	remoteFee = decimal.NewFromFloat(3.00)
)

// Fee returns the delivery fee for the given mode and postal code. Pickup
// and dine-in are always free.
func Fee(mode Mode, postalCode string) decimal.Decimal {
	if mode != ModeDelivery || postalCode == "" {
		return decimal.Zero
	}
	switch {
	case freeZone[postalCode]:
		return decimal.Zero
	case nearZone[postalCode]:
		return nearFee
	default:
		return remoteFee
	}
}
