package scraper

// Listing represents a single rental offer extracted from a search page.
// Listings are ephemeral; they exist only within one poll cycle.
type Listing struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url"`
	Price  string `json:"price,omitempty"`
	Source string `json:"source"`
}

// Details holds the fields extracted from a listing's detail page
type Details struct {
	Title       string
	Fields      map[string]string
	Description string
}

// ListingSource defines the contract for all listing-source implementations
type ListingSource interface {
	// Name returns the source's name for logging and identification
	Name() string

	// FetchListings retrieves the current listings from the source page
	FetchListings() ([]Listing, error)

	// FetchDetails retrieves and parses a listing's detail page
	FetchDetails(url string) (*Details, error)
}
