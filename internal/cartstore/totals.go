package cartstore

import "github.com/shopspring/decimal"

// Totals recomputes the derived amounts from the current line items. Lines
// without a price contribute zero to the subtotal. Shipping is free strictly
// above the configured threshold.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal := decimal.Zero
	for _, item := range s.items {
		line := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	tax := subtotal.Mul(s.pricing.TaxRate).Round(2)

	shipping := s.pricing.ShippingFee
	if subtotal.GreaterThan(s.pricing.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Totals{
		Subtotal:   subtotal,
		Tax:        tax,
		Shipping:   shipping,
		GrandTotal: subtotal.Add(tax).Add(shipping),
	}
}
