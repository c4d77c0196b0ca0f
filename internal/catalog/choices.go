package catalog

import (
	"fmt"

	"github.com/oboricienne/ordering/internal/domain"
)

// ChoiceRef is a client-side selection: which option inside which
// customization group.
type ChoiceRef struct {
	CustomizationID string `json:"customization_id"`
	OptionID        string `json:"option_id"`
}

// Info returns the display snapshot the cart keeps for this product.
func (p *Product) Info() domain.ProductInfo {
	return domain.ProductInfo{
		ID:        p.ID,
		Name:      p.Name,
		BasePrice: p.Price,
		ImageURL:  p.ImageURL,
	}
}

// ResolveChoices maps selection refs to priced choices using the product's
// own customization groups, so price deltas always come from the catalog
// and never from the client. A group may be picked once, unless it is
// marked as allowing multiple selections.
func (p *Product) ResolveChoices(refs []ChoiceRef) ([]domain.ChoiceSelection, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	groups := make(map[string]Customization, len(p.Customizations))
	for _, c := range p.Customizations {
		groups[c.ID] = c
	}

	picked := make(map[string]int, len(refs))
	out := make([]domain.ChoiceSelection, 0, len(refs))
	for _, ref := range refs {
		group, ok := groups[ref.CustomizationID]
		if !ok {
			return nil, fmt.Errorf("unknown customization %q for product %q", ref.CustomizationID, p.ID)
		}
		if picked[group.ID] > 0 && !group.IsMultiple {
			return nil, fmt.Errorf("customization %q allows a single option", group.Name)
		}

		var option *CustomizationOption
		for i := range group.Options {
			if group.Options[i].ID == ref.OptionID {
				option = &group.Options[i]
				break
			}
		}
		if option == nil {
			return nil, fmt.Errorf("unknown option %q in customization %q", ref.OptionID, group.Name)
		}

		picked[group.ID]++
		out = append(out, domain.ChoiceSelection{
			GroupID:    group.ID,
			GroupName:  group.Name,
			OptionID:   option.ID,
			OptionName: option.Name,
			PriceDelta: option.PriceModifier,
		})
	}
	return out, nil
}
