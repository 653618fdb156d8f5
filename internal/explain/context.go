// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package explain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/agrimarket/internal/recommend"
)

// DefaultFarmerName is used when the request carries no name.
const DefaultFarmerName = "Mkulima"

// Data sources reported in the context and in audit records.
const (
	DataSourcePrices    = "Market CSV (wholesale & retail)"
	DataSourceForecast  = "Price forecast"
	DataSourceTransport = "Distance-based transport cost"
)

// ErrUnsupportedLanguage is returned by ParseLanguage.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language selects the optional sections of the explanation.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSwahili Language = "sw"
	LanguageLocal   Language = "local"
	LanguageBoth    Language = "both"
)

// ParseLanguage maps a request value to a Language. Empty means English.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LanguageEnglish, nil
	case LanguageEnglish, LanguageSwahili, LanguageLocal, LanguageBoth:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
}

// IncludesSwahili reports whether a Swahili summary is requested.
func (l Language) IncludesSwahili() bool {
	return l == LanguageSwahili || l == LanguageBoth
}

// IncludesLocal reports whether a local-dialect sentence is requested.
func (l Language) IncludesLocal() bool {
	return l == LanguageLocal || l == LanguageBoth
}

// MarketEntry is one ranked market as shown to the model.
type MarketEntry struct {
	Rank              int        `json:"rank"`
	Market            string     `json:"market"`
	County            string     `json:"county"`
	RetailPrice       float64    `json:"retail_price"`
	DistanceKM        *float64   `json:"distance_km,omitempty"`
	TransportCost     *float64   `json:"transport_cost,omitempty"`
	EffectiveProfit   float64    `json:"effective_profit"`
	Precision         string     `json:"precision"`
	Trend             string     `json:"trend"`
	TrendMessage      string     `json:"trend_message"`
	Tips              []string   `json:"tips"`
	BestSellStart     *time.Time `json:"best_sell_start,omitempty"`
	BestSellEnd       *time.Time `json:"best_sell_end,omitempty"`
	PeakForecastPrice *float64   `json:"peak_forecast_price,omitempty"`
}

// Context is everything an Explainer may use. It never contains a market
// that is not in the ranking it was built from.
type Context struct {
	FarmerName  string        `json:"farmer_name"`
	Location    string        `json:"location"`
	County      string        `json:"county"`
	Crop        string        `json:"crop"`
	Language    Language      `json:"language"`
	NoData      bool          `json:"no_data"`
	Markets     []MarketEntry `json:"markets"`
	DataSources []string      `json:"data_sources"`
}

// Best returns the top market, or false for the no-data case.
func (c *Context) Best() (MarketEntry, bool) {
	if c == nil || len(c.Markets) == 0 {
		return MarketEntry{}, false
	}
	return c.Markets[0], true
}

// ContextInput is the input to BuildContext.
type ContextInput struct {
	FarmerName string
	Location   string
	Language   Language
	Result     *recommend.RankResult

	// Limit caps the number of markets. Zero keeps every ranked candidate.
	Limit int
}

// BuildContext packages a ranking for explanation.
func BuildContext(in ContextInput) *Context {
	name := strings.TrimSpace(in.FarmerName)
	if name == "" {
		name = DefaultFarmerName
	}
	lang := in.Language
	if lang == "" {
		lang = LanguageEnglish
	}

	c := &Context{
		FarmerName: name,
		Location:   strings.TrimSpace(in.Location),
		Language:   lang,
		Markets:    []MarketEntry{},
	}
	c.County = c.Location

	res := in.Result
	if res == nil {
		c.NoData = true
		c.DataSources = []string{DataSourcePrices}
		return c
	}

	c.Crop = res.Crop
	if !res.Location.Fallback && res.Location.Place.County != "" {
		c.County = res.Location.Place.County
	}

	candidates := res.Candidates
	if in.Limit > 0 && len(candidates) > in.Limit {
		candidates = candidates[:in.Limit]
	}

	hasForecast := false
	for i, cand := range candidates {
		c.Markets = append(c.Markets, MarketEntry{
			Rank:              i + 1,
			Market:            cand.Market,
			County:            cand.County,
			RetailPrice:       cand.RetailPrice,
			DistanceKM:        cand.DistanceKM,
			TransportCost:     cand.TransportCost,
			EffectiveProfit:   cand.EffectiveProfit,
			Precision:         string(cand.Precision),
			Trend:             string(cand.Trend),
			TrendMessage:      cand.TrendMessage,
			Tips:              append([]string(nil), cand.Tips...),
			BestSellStart:     cand.BestSellStart,
			BestSellEnd:       cand.BestSellEnd,
			PeakForecastPrice: cand.PeakForecastPrice,
		})
		if cand.BestSellStart != nil {
			hasForecast = true
		}
	}
	c.NoData = len(c.Markets) == 0

	c.DataSources = []string{DataSourcePrices}
	if hasForecast {
		c.DataSources = append(c.DataSources, DataSourceForecast)
	}
	if !c.NoData {
		c.DataSources = append(c.DataSources, DataSourceTransport)
	}
	return c
}

// neighbours are county pairs close enough to call "nearby".
var neighbours = [][2]string{
	{"kajiado", "narok"},
	{"kakamega", "vihiga"},
	{"nyeri", "kirinyaga"},
}

// DescribeProximity gives a rough distance phrase for when no distance is
// known.
func DescribeProximity(farmerCounty, marketCounty string) string {
	farmer := strings.ToLower(strings.TrimSpace(farmerCounty))
	market := strings.ToLower(strings.TrimSpace(marketCounty))

	if farmer != "" && farmer == market {
		return "very near you"
	}
	for _, n := range neighbours {
		if strings.HasPrefix(farmer, n[0]) && strings.HasPrefix(market, n[1]) {
			return "nearby your area"
		}
	}
	return "a bit farther but still reachable"
}
