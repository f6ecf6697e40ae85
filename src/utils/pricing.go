package utils

import (
	"math"

	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/santupramanik23/my-guide-backend/src/types"
)

// CalculatePricing derives the breakdown for a booking. Tax and service fee
// are rounded separately before being summed into the total.
func CalculatePricing(basePrice float64, participants int, promoOff float64, rates config.PricingConfig) types.PricingBreakdown {
	if basePrice < 0 {
		basePrice = 0
	}
	if participants < 1 {
		participants = 1
	}
	if promoOff < 0 {
		promoOff = 0
	}
	subtotal := basePrice * float64(participants)
	tax := roundHalfUp(subtotal * rates.TaxRate)
	serviceFee := roundHalfUp(subtotal * rates.ServiceFeeRate)
	total := math.Max(0, subtotal+tax+serviceFee-promoOff)
	return types.PricingBreakdown{
		BasePrice:  basePrice,
		Subtotal:   subtotal,
		Tax:        tax,
		ServiceFee: serviceFee,
		PromoOff:   promoOff,
		Total:      total,
	}
}

// ResolveBasePrice picks the first positive price of the item, or the configured default.
func ResolveBasePrice(item *types.BookableItem, rates config.PricingConfig) float64 {
	if item != nil {
		if item.Price > 0 {
			return item.Price
		}
		if item.BasePrice > 0 {
			return item.BasePrice
		}
	}
	return rates.DefaultBasePrice
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
