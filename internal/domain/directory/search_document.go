package directory

// SearchDocument is the denormalized read-side projection of a business for
// the search index. It is not authoritative and can be rebuilt from the
// relational data at any time.
type SearchDocument struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Street      string     `json:"street"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	PostalCode  string     `json:"postal_code"`
	Phone       string     `json:"phone"`
	Website     string     `json:"website"`
	Categories  []string   `json:"categories"`
	CategoryIDs []string   `json:"category_ids"`
	SiteIDs     []string   `json:"site_ids"`
	Rating      float64    `json:"rating"`
	ReviewCount int        `json:"review_count"`
	Location    *[2]float64 `json:"location,omitempty"`
}
