package domain

import (
	"math"

	"busbooking/internal/domain/models"
)

// VATRate is the fixed tax applied on the base fare.
const VATRate = 0.13

const DefaultCurrency = "NPR"

func roundMoney(x float64) int64 {
	return int64(math.Round(x))
}

// Quote prices a booking: base fare per passenger, 13% VAT, then the discount.
// The total never goes below zero.
func Quote(route models.Route, passengerCount int, discount *models.DiscountRule) models.Pricing {
	if passengerCount < 0 {
		passengerCount = 0
	}
	base := route.Pricing.BasePrice * int64(passengerCount)
	if base < 0 {
		base = 0
	}
	taxes := roundMoney(float64(base) * VATRate)

	var disc models.Discount
	if discount != nil {
		disc.Code = discount.Code
		disc.Amount = discountAmount(*discount, base, base+taxes)
	}

	total := base + taxes - disc.Amount
	if total < 0 {
		total = 0
	}

	currency := route.Pricing.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	return models.Pricing{
		BasePrice:   base,
		Taxes:       taxes,
		Discount:    disc,
		TotalAmount: total,
		Currency:    currency,
	}
}

func discountAmount(rule models.DiscountRule, base, ceiling int64) int64 {
	var amt int64
	switch {
	case rule.Percent > 0:
		pct := rule.Percent
		if pct > 100 {
			pct = 100
		}
		amt = roundMoney(float64(base) * pct / 100)
	default:
		amt = rule.Amount
	}
	if amt < 0 {
		return 0
	}
	if amt > ceiling {
		return ceiling
	}
	return amt
}

// LoyaltyPoints earned on a paid booking: one point per 100 currency units.
func LoyaltyPoints(totalAmount int64) int64 {
	if totalAmount <= 0 {
		return 0
	}
	return totalAmount / 100
}
