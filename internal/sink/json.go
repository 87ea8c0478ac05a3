package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jobscout/pkg/utils"
)

// CompanyDocument is the shape of data/<key>.json
type CompanyDocument struct {
	CompanyName        string              `json:"company_name"`
	CareerURL          string              `json:"career_url"`
	TotalJobs          int                 `json:"total_jobs"`
	ScrapedAt          time.Time           `json:"scraped_at"`
	EnhancedExtraction bool                `json:"enhanced_extraction"`
	Jobs               []map[string]string `json:"jobs"`
}

// JSONSink writes one document per company, replacing the previous one
type JSONSink struct {
	dir string
}

func NewJSONSink(dir string) *JSONSink {
	return &JSONSink{dir: dir}
}

func (s *JSONSink) Name() string { return "json" }

func (s *JSONSink) Write(_ context.Context, batch Batch) ([]string, error) {
	if len(batch.Jobs) == 0 {
		return nil, nil
	}

	data, err := json.MarshalIndent(newCompanyDocument(batch), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	path := filepath.Join(s.dir, utils.SafeCompanyKey(batch.Company)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return []string{path}, nil
}

func (s *JSONSink) Close() error { return nil }

func newCompanyDocument(batch Batch) CompanyDocument {
	doc := CompanyDocument{
		CompanyName:        batch.Company,
		CareerURL:          batch.CareerURL,
		TotalJobs:          len(batch.Jobs),
		ScrapedAt:          scrapedAt(batch),
		EnhancedExtraction: batch.Enhanced,
		Jobs:               make([]map[string]string, 0, len(batch.Jobs)),
	}
	for _, job := range batch.Jobs {
		doc.Jobs = append(doc.Jobs, rowFields(batch, job))
	}
	return doc
}
