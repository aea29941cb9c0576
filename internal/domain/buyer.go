package domain

// Buyer is a single prospective business contact discovered by the provider.
//
// Name is the deduplication key: two buyers with the same exact Name are the
// same entity even when their IDs differ. ID is assigned locally by the
// search gateway (the provider never supplies identifiers) and is stable for
// the lifetime of the record, including across persistence round trips.
type Buyer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	ContactInfo string `json:"contactInfo"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Specialty   string `json:"specialty"`
}

// SearchResponse is the validated output of one gateway call: a batch of
// buyers plus a one-sentence market insight.
type SearchResponse struct {
	Buyers        []Buyer
	MarketInsight string
}

// Names returns the buyer names in order. Used to build exclusion lists.
func Names(buyers []Buyer) []string {
	names := make([]string, len(buyers))
	for i, b := range buyers {
		names[i] = b.Name
	}
	return names
}
