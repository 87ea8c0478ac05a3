package models

import "time"

// ScrapeResponse is returned by a synchronous scrape
type ScrapeResponse struct {
	Success        bool          `json:"success"`
	Company        string        `json:"company"`
	URL            string        `json:"url"`
	TotalJobs      int           `json:"total_jobs"`
	Pages          int           `json:"pages"`
	TerminalReason string        `json:"terminal_reason,omitempty"`
	Jobs           []JobRecord   `json:"jobs"`
	Artifacts      []string      `json:"artifacts,omitempty"`
	Error          string        `json:"error,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	Engine         string        `json:"engine_used"`
	RequestID      string        `json:"request_id"`
}

// ScoutResponse is returned by selector discovery
type ScoutResponse struct {
	Success        bool          `json:"success"`
	Company        string        `json:"company"`
	URL            string        `json:"url"`
	Selectors      *SelectorMap  `json:"selectors,omitempty"`
	Error          string        `json:"error,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	RequestID      string        `json:"request_id"`
}

// ConfigurationListResponse lists stored selector maps
type ConfigurationListResponse struct {
	Success        bool                   `json:"success"`
	Count          int                    `json:"count"`
	Configurations []CompanyConfiguration `json:"configurations"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
