package domain

import "fmt"

// DiamondType is the stone category a buyer trades in.
type DiamondType string

// Diamond type values. The strings double as the human-readable labels used
// in prompts, so they match the UI wording exactly.
const (
	DiamondNatural  DiamondType = "Natural"
	DiamondLabGrown DiamondType = "Lab-Grown"
	DiamondBoth     DiamondType = "Both Natural & Lab-Grown"
)

// ParseDiamondType validates a diamond type label.
func ParseDiamondType(s string) (DiamondType, error) {
	switch DiamondType(s) {
	case DiamondNatural, DiamondLabGrown, DiamondBoth:
		return DiamondType(s), nil
	}
	return "", fmt.Errorf("%w: unknown diamond type %q", ErrInvalidQuery, s)
}

// BuyerType is the buyer category being prospected.
type BuyerType string

// Buyer category values.
const (
	BuyerAll          BuyerType = "All Categories"
	BuyerWholesaler   BuyerType = "Wholesalers & Traders"
	BuyerRetailer     BuyerType = "Retailers & Jewelry Stores"
	BuyerManufacturer BuyerType = "Manufacturers"
	BuyerPrivate      BuyerType = "Private Buyers & Investors"
)

// ParseBuyerType validates a buyer category label.
func ParseBuyerType(s string) (BuyerType, error) {
	switch BuyerType(s) {
	case BuyerAll, BuyerWholesaler, BuyerRetailer, BuyerManufacturer, BuyerPrivate:
		return BuyerType(s), nil
	}
	return "", fmt.Errorf("%w: unknown buyer type %q", ErrInvalidQuery, s)
}

// MarketTier is the market scale the search should focus on.
type MarketTier string

// Market tier values.
const (
	TierAny        MarketTier = "Any Scale"
	TierLuxury     MarketTier = "High-End / Luxury"
	TierCommercial MarketTier = "Commercial / Mass Market"
	TierBoutique   MarketTier = "Indie / Boutique"
)

// ParseMarketTier validates a market tier label.
func ParseMarketTier(s string) (MarketTier, error) {
	switch MarketTier(s) {
	case TierAny, TierLuxury, TierCommercial, TierBoutique:
		return MarketTier(s), nil
	}
	return "", fmt.Errorf("%w: unknown market tier %q", ErrInvalidQuery, s)
}

// DefaultLocation is used when the query leaves the location blank.
const DefaultLocation = "Worldwide"

// Query is one immutable set of search criteria. A new top-level search
// replaces the workspace's accumulated results; a load-more reuses the same
// Query value verbatim.
type Query struct {
	DiamondType DiamondType
	BuyerType   BuyerType
	MarketTier  MarketTier
	Location    string
	Keywords    string
}

// NewQuery validates the enum labels and applies the location default.
func NewQuery(diamondType, buyerType, marketTier, location, keywords string) (Query, error) {
	dt, err := ParseDiamondType(diamondType)
	if err != nil {
		return Query{}, err
	}
	bt, err := ParseBuyerType(buyerType)
	if err != nil {
		return Query{}, err
	}
	mt, err := ParseMarketTier(marketTier)
	if err != nil {
		return Query{}, err
	}
	if location == "" {
		location = DefaultLocation
	}
	return Query{
		DiamondType: dt,
		BuyerType:   bt,
		MarketTier:  mt,
		Location:    location,
		Keywords:    keywords,
	}, nil
}
