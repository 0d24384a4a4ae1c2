package replenish

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoSupplier indicates no supplier offers the SKU on the requested lane.
var ErrNoSupplier = errors.New("replenish: no supplier pricing for sku")

// EffectiveTier resolves which price break an offer trades at: the tier the
// operator marked selected, or with none selected the lowest-quantity tier.
func EffectiveTier(tiers []PriceTier) (PriceTier, error) {
	if len(tiers) == 0 {
		return PriceTier{}, errors.New("replenish: pricing has no tiers")
	}
	lowest := tiers[0]
	for _, tier := range tiers {
		if tier.Selected {
			return tier, nil
		}
		if tier.MinQty < lowest.MinQty {
			lowest = tier
		}
	}
	return lowest, nil
}

// Quote is the resolved supplier and price for a proposed order. The lead
// time is the effective tier's own when it carries one, the offer's lane
// lead time otherwise.
type Quote struct {
	SupplierID   string
	LeadTimeDays int
	UnitPrice    decimal.Decimal
	Total        decimal.Decimal
}

// ResolvePricing picks the cheapest supplier offer for the quantity on the
// given lane, each offer priced at its effective tier.
func ResolvePricing(offers []SupplierPricing, mode Mode, qty float64) (Quote, error) {
	var best Quote
	found := false
	for _, offer := range offers {
		if offer.Mode != mode {
			continue
		}
		tier, err := EffectiveTier(offer.Tiers)
		if err != nil {
			continue
		}
		lead := offer.LeadTimeDays
		if tier.LeadTimeDays > 0 {
			lead = tier.LeadTimeDays
		}
		total := tier.UnitPrice.Mul(decimal.NewFromFloat(qty))
		if !found || total.LessThan(best.Total) {
			best = Quote{
				SupplierID:   offer.SupplierID,
				LeadTimeDays: lead,
				UnitPrice:    tier.UnitPrice,
				Total:        total,
			}
			found = true
		}
	}
	if !found {
		return Quote{}, ErrNoSupplier
	}
	best.Total = best.Total.Round(2)
	return best, nil
}
