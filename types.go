package prospector

import "github.com/smoak-intel/prospector/internal/domain"

// Buyer is a discovered diamond buyer.
type Buyer struct {
	ID          string
	Name        string
	Location    string
	Type        string
	ContactInfo string
	Website     string
	Description string
	Specialty   string
}

// Query describes one discovery search. Diamond, Audience and Tier take the
// same labels the API accepts ("Natural", "All Categories", "Any Scale", ...);
// empty Location defaults to a worldwide search.
type Query struct {
	Diamond  string
	Audience string
	Tier     string
	Location string
	Keywords string
}

// Workspace is a read-only view of the accumulated search results.
type Workspace struct {
	State         string
	View          string
	Buyers        []Buyer
	MarketInsight string
	LastError     string
	HasSearched   bool
}

func buyerFromDomain(b domain.Buyer) Buyer {
	return Buyer{
		ID:          b.ID,
		Name:        b.Name,
		Location:    b.Location,
		Type:        b.Type,
		ContactInfo: b.ContactInfo,
		Website:     b.Website,
		Description: b.Description,
		Specialty:   b.Specialty,
	}
}

func buyersFromDomain(buyers []domain.Buyer) []Buyer {
	out := make([]Buyer, len(buyers))
	for i, b := range buyers {
		out[i] = buyerFromDomain(b)
	}
	return out
}

func buyerToDomain(b Buyer) domain.Buyer {
	return domain.Buyer{
		ID:          b.ID,
		Name:        b.Name,
		Location:    b.Location,
		Type:        b.Type,
		ContactInfo: b.ContactInfo,
		Website:     b.Website,
		Description: b.Description,
		Specialty:   b.Specialty,
	}
}
