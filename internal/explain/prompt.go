// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package explain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SystemPrompt frames every explanation request.
const SystemPrompt = "You are an agricultural assistant for Kenyan farmers. " +
	"Explain market recommendations clearly and honestly in simple language without technical jargon. " +
	"Only use the markets and figures you are given."

const whatsappRules = `
WHATSAPP FORMATTING RULES:
- Clean line breaks.
- Allowed: bullets (•), bold text (**Name**)
- Keep the message short, clear and helpful.`

// BuildPrompt renders the user prompt for c, choosing the no-data prompt when
// c has no markets.
func BuildPrompt(c *Context) string {
	if c.NoData || len(c.Markets) == 0 {
		return buildNoDataPrompt(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an agricultural assistant helping a Kenyan farmer decide the best market to sell produce.\n\n")
	fmt.Fprintf(&b, "Address the farmer directly by name.\n\n")
	fmt.Fprintf(&b, "FARMER DETAILS:\n- Name: %s\n- Location: %s\n- Crop: %s\n\n", c.FarmerName, c.Location, c.Crop)
	fmt.Fprintf(&b, "Below are the ONLY %d markets selected by the system. ", len(c.Markets))
	b.WriteString("Each includes: retail price, distance estimate, transport cost, effective profit, a price trend insight and transport-saving tips.\n\n")

	for _, m := range c.Markets {
		b.WriteString(formatMarket(c.County, m))
		b.WriteString("\n")
	}

	others := len(c.Markets) - 1
	fmt.Fprintf(&b, "\nYOUR TASK:\n")
	fmt.Fprintf(&b, "1. Speak directly to %s, e.g. \"**%s**, the most profitable market for you is...\".\n", c.FarmerName, c.FarmerName)
	b.WriteString("2. Choose ONE best market using the highest effective profit, lower transport cost, shorter distance and the trend information.\n")
	b.WriteString("3. Explain the recommendation in 2-3 simple English sentences.\n")
	if others > 0 {
		fmt.Fprintf(&b, "4. Give a one-sentence insight for each of the other %d market(s).\n", others)
	} else {
		b.WriteString("4. Say briefly why this is the only market listed.\n")
	}
	b.WriteString("5. Give practical advice: best time to sell, how transport affects profit, and ways to reduce cost such as shared transport or early departure.\n")
	b.WriteString("6. DO NOT create new markets or new data.\n\n")
	b.WriteString("PRIMARY LANGUAGE:\nYour main explanation MUST be in English.\n")

	if c.Language.IncludesSwahili() {
		fmt.Fprintf(&b, "\nOPTIONAL SWAHILI VERSION:\nGive a 2-3 sentence Swahili summary after the English one. Address %s directly.\n", c.FarmerName)
	}
	if c.Language.IncludesLocal() {
		b.WriteString("\nOPTIONAL LOCAL DIALECT:\nProvide ONE short respectful sentence in a dialect suitable for the farmer's county.\n")
	}
	b.WriteString(whatsappRules)

	return strings.TrimSpace(b.String())
}

func buildNoDataPrompt(c *Context) string {
	var b strings.Builder
	b.WriteString("You are an agricultural advisor assisting a Kenyan farmer.\n\n")
	fmt.Fprintf(&b, "We could NOT find market price data for:\n- Farmer: %s\n- Location: %s\n- Crop: %s\n\n", c.FarmerName, c.Location, c.Crop)
	b.WriteString("YOUR TASK:\n")
	b.WriteString("1. Give helpful, practical guidance in English even though data is missing.\n")
	b.WriteString("2. DO NOT invent any markets or prices.\n")
	b.WriteString("3. Give 3-4 steps the farmer can take today to find a good selling point, such as checking nearby trading centres, asking transporters about demand, visiting common regional markets and comparing buyer offers early in the morning.\n")
	b.WriteString("4. Explain how to choose a market based on distance, transport cost and demand.\n")
	fmt.Fprintf(&b, "5. Address %s directly and keep the tone friendly.\n", c.FarmerName)

	if c.Language.IncludesSwahili() {
		b.WriteString("\nOPTIONAL SWAHILI VERSION:\nProvide a short 2-3 sentence Swahili summary. Do NOT create fake prices or markets.\n")
	}
	if c.Language.IncludesLocal() {
		b.WriteString("\nOPTIONAL LOCAL DIALECT:\nGive ONE short respectful sentence in an appropriate dialect.\n")
	}
	b.WriteString(whatsappRules)

	return strings.TrimSpace(b.String())
}

func formatMarket(farmerCounty string, m MarketEntry) string {
	distance := DescribeProximity(farmerCounty, m.County)
	if m.DistanceKM != nil {
		distance = formatNumber(*m.DistanceKM) + " km away"
	}
	transport := "N/A"
	if m.TransportCost != nil {
		transport = formatNumber(*m.TransportCost)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s (%s) - Price: %s KES, %s, Transport: %s KES, Effective Profit: %s KES\n",
		m.Rank, m.Market, m.County, formatNumber(m.RetailPrice), distance, transport, formatNumber(m.EffectiveProfit))

	trend := m.TrendMessage
	if trend == "" {
		trend = "No price trend information available."
	}
	fmt.Fprintf(&b, "   Trend: %s\n", trend)

	if m.BestSellStart != nil && m.BestSellEnd != nil {
		fmt.Fprintf(&b, "   Best selling window: %s to %s", m.BestSellStart.Format("2006-01-02"), m.BestSellEnd.Format("2006-01-02"))
		if m.PeakForecastPrice != nil {
			fmt.Fprintf(&b, " (forecast peak %s KES)", formatNumber(*m.PeakForecastPrice))
		}
		b.WriteString("\n")
	}

	b.WriteString("   Transport Tips:\n")
	if len(m.Tips) == 0 {
		b.WriteString("   - No transport advice available\n")
	}
	for _, t := range m.Tips {
		fmt.Fprintf(&b, "   - %s\n", t)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatNumber prints whole numbers without decimals and others with at most
// two.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Snippet returns the first n bytes of the prompt for audit records, cut on a
// rune boundary.
func Snippet(prompt string, n int) string {
	if len(prompt) <= n {
		return prompt
	}
	cut := prompt[:n]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
