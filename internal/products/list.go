package product

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category  string `json:"category,omitempty"`
	Type      string `json:"type,omitempty"`
	PrintType string `json:"print_type,omitempty"`
	PriceMin  string `json:"price_min,omitempty"`
	PriceMax  string `json:"price_max,omitempty"`
	Query     string `json:"q,omitempty"`
}

// ListInput captures the inputs needed to paginate/filter the catalog.
type ListInput struct {
	Filters       ListFilters
	SortBy        string
	SortDir       string
	Page          int
	Limit         int
	IncludeHidden bool
}

// ListMeta carries page metadata alongside a result set.
type ListMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ListResult pairs a page of products with its metadata.
type ListResult struct {
	Products []ProductDTO `json:"products"`
	Meta     ListMeta     `json:"meta"`
}
