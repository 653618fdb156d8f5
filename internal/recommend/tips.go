// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package recommend

const maxTips = 3

// Distance and cost bands.
const (
	shortDistanceKM  = 5.0
	mediumDistanceKM = 20.0
	highCostKES      = 800.0
)

const (
	TipAskTransporters   = "Ask local transporters for their current rates before you travel."
	TipComparePrices     = "Compare prices early in the morning before committing to a market."
	TipNearestMainMarket = "If transport costs are uncertain, choose the nearest main market."

	TipShortDistance  = "Because the market is close, you can deliver quickly and keep produce fresh for better bargaining power."
	TipMediumDistance = "Consider sharing transport with another farmer and leaving early in the morning to reduce the per-km cost."
	TipLongDistance   = "This is a long trip. Compare quotes from several transporters before committing."

	TipHighCost     = "Transport cost is high for this market. Consider selling closer unless the price difference clearly covers it."
	TipEvaluateCost = "Check that the price minus transport cost still leaves you a good profit before you travel."

	TipBulk = "Transporting produce in bulk or combining deliveries often lowers cost per kilogram."
)

// TransportTips returns up to three tips ordered distance band, cost band,
// then the universal bulk tip. A nil distance yields the generic list.
func TransportTips(distanceKM, cost *float64) []string {
	if distanceKM == nil {
		return []string{TipAskTransporters, TipComparePrices, TipNearestMainMarket}
	}

	tips := make([]string, 0, maxTips)
	switch d := *distanceKM; {
	case d <= shortDistanceKM:
		tips = append(tips, TipShortDistance)
	case d <= mediumDistanceKM:
		tips = append(tips, TipMediumDistance)
	default:
		tips = append(tips, TipLongDistance)
	}

	if cost != nil {
		if *cost > highCostKES {
			tips = append(tips, TipHighCost)
		} else {
			tips = append(tips, TipEvaluateCost)
		}
	}

	tips = append(tips, TipBulk)
	if len(tips) > maxTips {
		tips = tips[:maxTips]
	}
	return tips
}
