package services

// PricingLine is one priced line fed into ComputeTotals. UnitPrice already
// includes any variant price delta.
type PricingLine struct {
	UnitPrice float64
	Quantity  int
}

// ShippingPolicy is the configured shipping rule: a flat rate waived above
// the free-shipping threshold. A zero threshold disables free shipping.
type ShippingPolicy struct {
	FlatRate      float64
	FreeThreshold float64
}

// Rate returns the shipping cost for the given subtotal.
func (p ShippingPolicy) Rate(subtotal float64) float64 {
	if p.FreeThreshold > 0 && subtotal >= p.FreeThreshold {
		return 0
	}
	return p.FlatRate
}

// Totals is the money breakdown for a cart or order.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// ComputeTotals derives the full money breakdown for a set of lines.
// Tax applies to the discounted subtotal and the grand total is floored
// at zero, so an oversized discount can never produce a negative charge.
func ComputeTotals(lines []PricingLine, discount, taxRate float64, shipping ShippingPolicy) Totals {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.UnitPrice * float64(l.Quantity)
	}

	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}

	taxable := subtotal - discount
	tax := taxRate * taxable
	if tax < 0 {
		tax = 0
	}

	ship := shipping.Rate(subtotal)

	total := subtotal + tax + ship - discount
	if total < 0 {
		total = 0
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: ship,
		Total:    total,
	}
}
