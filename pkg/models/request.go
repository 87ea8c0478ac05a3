package models

// ScrapeRequest asks for a full list and detail scrape of one careers page
type ScrapeRequest struct {
	Company        string `json:"company" validate:"required,max=200,company_name"`
	URL            string `json:"url" validate:"required,careers_url"`
	ExtractDetails *bool  `json:"extract_details,omitempty"`
	Engine         string `json:"engine,omitempty" validate:"omitempty,oneof=headed static"`
	// Rediscover ignores any stored selector map
	Rediscover bool `json:"rediscover,omitempty"`
	Async      bool `json:"async,omitempty"`
}

// ScoutRequest asks only for list selector discovery
type ScoutRequest struct {
	Company string `json:"company" validate:"required,max=200,company_name"`
	URL     string `json:"url" validate:"required,careers_url"`
}
