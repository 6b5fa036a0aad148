package stock

// uncategorized is the category label applied when the source record
// carries none.
const uncategorized = "uncategorized"

// Normalize projects the three source collections into items. It is
// pure: inputs are copied, never mutated, and each item's Source points
// at a private copy of its record. Output order follows the inputs;
// callers sort through the query engine.
func Normalize(products []Product, donations []Donation, exchanges []Exchange) []Item {
	items := make([]Item, 0, len(products)+len(donations)+len(exchanges))
	for i := range products {
		p := products[i]
		items = append(items, Item{
			ID:         p.ID,
			Kind:       KindProduct,
			Name:       p.Name,
			Image:      p.Image,
			Category:   category(p.Category),
			Quantity:   p.Quantity,
			PriceCents: copyPrice(p.PriceCents),
			Available:  p.IsPublished && !p.IsBlocked,
			UpdatedAt:  p.UpdatedAt,
			Owner:      p.Owner,
			Source:     &p,
		})
	}
	for i := range donations {
		d := donations[i]
		items = append(items, Item{
			ID:        d.ID,
			Kind:      KindDonation,
			Name:      d.Name,
			Image:     d.Image,
			Category:  category(d.Category),
			Quantity:  1,
			Available: d.IsPublished && !d.IsBlocked,
			UpdatedAt: d.UpdatedAt,
			Owner:     d.Owner,
			Source:    &d,
		})
	}
	for i := range exchanges {
		e := exchanges[i]
		items = append(items, Item{
			ID:        e.ID,
			Kind:      KindExchange,
			Name:      e.Name,
			Image:     e.Image,
			Category:  category(e.Category),
			Quantity:  1,
			Available: e.IsPublished,
			UpdatedAt: e.UpdatedAt,
			Owner:     e.Owner,
			Source:    &e,
		})
	}
	return items
}

func category(c string) string {
	if c == "" {
		return uncategorized
	}
	return c
}

func copyPrice(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
