package openai

import (
	"fmt"
	"strings"

	"github.com/smoak-intel/prospector/internal/domain"
)

// buyerTypePhrases maps each buyer category to the audience phrase used in
// the search prompt.
var buyerTypePhrases = map[domain.BuyerType]string{
	domain.BuyerAll:          "B2B buyers, wholesalers, retailers, trading houses, or jewelry manufacturers",
	domain.BuyerWholesaler:   "diamond wholesalers, loose stone traders, and B2B diamond exchanges",
	domain.BuyerRetailer:     "jewelry retailers, luxury jewelry boutiques, and jewelry store chains",
	domain.BuyerManufacturer: "jewelry manufacturers, diamond setting factories, and casting houses",
	domain.BuyerPrivate:      "private diamond collectors, high-net-worth individuals, family offices, and diamond investment firms",
}

// tierInstructions maps each market tier to an extra focus instruction.
// TierAny contributes nothing.
var tierInstructions = map[domain.MarketTier]string{
	domain.TierAny:        "",
	domain.TierLuxury:     "Focus specifically on high-end, luxury, and premium market entities.",
	domain.TierCommercial: "Focus on commercial, mass-market, and high-volume entities.",
	domain.TierBoutique:   "Focus on independent, artisanal, and boutique entities.",
}

// buildPrompt assembles the natural-language task description for one search.
// When excludeNames is non-empty, only the most recent window entries are
// named; older exclusions are dropped to bound prompt size.
func buildPrompt(q domain.Query, excludeNames []string, window int) string {
	audience, ok := buyerTypePhrases[q.BuyerType]
	if !ok {
		audience = buyerTypePhrases[domain.BuyerAll]
	}

	location := q.Location
	if location == "" {
		location = domain.DefaultLocation
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Find reputable %s who buy %s diamonds in %s.\n", audience, q.DiamondType, location)

	if instr := tierInstructions[q.MarketTier]; instr != "" {
		b.WriteString(instr)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nSpecific focus/keywords: %s.\n", q.Keywords)

	if len(excludeNames) > 0 {
		recent := excludeNames
		if len(recent) > window {
			recent = recent[len(recent)-window:]
		}
		fmt.Fprintf(&b,
			"Do NOT include these businesses as they have already been listed: %s. Find DIFFERENT ones.\n",
			strings.Join(recent, ", "))
	}

	b.WriteString("\nUse web search knowledge to find real, existing entities.\n")
	b.WriteString("Extract public contact information (phone numbers, WhatsApp if explicitly stated, or emails) and websites.\n")
	b.WriteString("\nProvide a list of at least 5-8 NEW and DISTINCT entities.\n")
	fmt.Fprintf(&b,
		"Also provide a brief 1-sentence market insight about the current demand for %s diamonds in this region.\n",
		q.DiamondType)

	return b.String()
}
