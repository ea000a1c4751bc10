package services_test

import (
	"testing"

	"github.com/shopswift/storefront/services"
	"github.com/stretchr/testify/assert"
)

var standardShipping = services.ShippingPolicy{FlatRate: 60, FreeThreshold: 1000}

func TestComputeTotals_NoDiscount(t *testing.T) {
	lines := []services.PricingLine{
		{UnitPrice: 100, Quantity: 2},
		{UnitPrice: 50, Quantity: 1},
	}

	totals := services.ComputeTotals(lines, 0, 0.10, standardShipping)

	assert.Equal(t, 250.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Discount)
	assert.Equal(t, 25.0, totals.Tax)
	assert.Equal(t, 60.0, totals.Shipping, "below free shipping threshold")
	assert.Equal(t, 335.0, totals.Total)
}

func TestComputeTotals_FixedDiscountWithFreeShipping(t *testing.T) {
	// A variant line: 500 base + 50 additional price, quantity 2.
	lines := []services.PricingLine{
		{UnitPrice: 550, Quantity: 2},
	}

	totals := services.ComputeTotals(lines, 100, 0.10, standardShipping)

	assert.Equal(t, 1100.0, totals.Subtotal)
	assert.Equal(t, 100.0, totals.Discount)
	assert.Equal(t, 100.0, totals.Tax, "tax applies to the discounted subtotal")
	assert.Equal(t, 0.0, totals.Shipping, "subtotal 1100 crosses the free shipping threshold")
	assert.Equal(t, 1100.0, totals.Total)
}

func TestComputeTotals_DiscountCappedAtSubtotal(t *testing.T) {
	lines := []services.PricingLine{
		{UnitPrice: 40, Quantity: 1},
	}

	totals := services.ComputeTotals(lines, 500, 0.10, standardShipping)

	assert.Equal(t, 40.0, totals.Subtotal)
	assert.Equal(t, 40.0, totals.Discount, "discount never exceeds subtotal")
	assert.Equal(t, 0.0, totals.Tax)
	assert.Equal(t, 60.0, totals.Shipping)
	assert.Equal(t, 60.0, totals.Total, "only shipping remains")
}

func TestComputeTotals_NegativeDiscountIgnored(t *testing.T) {
	lines := []services.PricingLine{
		{UnitPrice: 100, Quantity: 1},
	}

	totals := services.ComputeTotals(lines, -10, 0.10, standardShipping)

	assert.Equal(t, 0.0, totals.Discount)
	assert.Equal(t, 170.0, totals.Total)
}

func TestComputeTotals_EmptyLines(t *testing.T) {
	totals := services.ComputeTotals(nil, 0, 0.10, standardShipping)

	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 60.0, totals.Shipping)
	assert.Equal(t, 60.0, totals.Total)
}

func TestComputeTotals_ZeroTaxRate(t *testing.T) {
	lines := []services.PricingLine{
		{UnitPrice: 200, Quantity: 3},
	}

	totals := services.ComputeTotals(lines, 0, 0, standardShipping)

	assert.Equal(t, 600.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Tax)
	assert.Equal(t, 660.0, totals.Total)
}

func TestShippingPolicy_Rate(t *testing.T) {
	assert.Equal(t, 60.0, standardShipping.Rate(999.99))
	assert.Equal(t, 0.0, standardShipping.Rate(1000), "threshold is inclusive")
	assert.Equal(t, 0.0, standardShipping.Rate(5000))

	noFree := services.ShippingPolicy{FlatRate: 60}
	assert.Equal(t, 60.0, noFree.Rate(100000), "zero threshold disables free shipping")
}
