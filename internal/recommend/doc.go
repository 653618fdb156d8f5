// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package recommend ranks markets for a farmer's crop.
//
// # Ranking
//
// Engine.Rank filters the price snapshot to one crop, resolves the farmer's
// location, and scores every candidate market:
//
//   - InRegion: the market's county shares a region with the farmer
//   - DistanceKM: haversine distance, when both ends have coordinates
//   - TransportCost: distance times the per-km rate, rounded to whole units
//   - EffectiveProfit: retail price minus transport cost, or the raw price
//     when the cost is unknown
//   - MedianDiff: distance from the crop's median price
//
// Candidates sort by InRegion (regional first), then EffectiveProfit
// (highest first), then MedianDiff (closest to the median first). Remaining
// ties keep snapshot order, so identical input always yields an identical list.
//
// # Degraded precision
//
// A candidate is never dropped for missing coordinates. Precision reports how
// far the numbers can be trusted:
//
//   - exact: market and farmer coordinates are both known
//   - approximate: a county centroid or the fallback farmer location was used
//   - unavailable: no distance; EffectiveProfit equals the retail price
//
// # Enrichment
//
// Each returned candidate carries a trend from its last two prices and up to
// three transport tips. Engine.AttachWindows adds a selling window when a
// forecast provider is configured; forecast failures leave the window unset.
//
// # Errors
//
// Only ErrInvalidInput reaches callers. An unknown crop is not an error: the
// result has NoData set and no candidates.
//
// # Thread Safety
//
// Engine holds only immutable tables and is safe for concurrent use. Rank
// never writes to the price table it is given.
package recommend
