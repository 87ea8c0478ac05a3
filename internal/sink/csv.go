package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// csvColumns lead every header; other fields follow sorted
var csvColumns = []string{
	models.FieldTitle,
	models.FieldLocation,
	models.FieldCompany,
	models.FieldJobID,
	models.FieldJobURL,
	models.FieldPreviewDescription,
	models.KeyFullDescription,
	models.KeyRequirements,
	models.KeyJobType,
	models.KeyExperienceLevel,
	models.KeySalary,
	models.KeySkills,
	models.KeyDeadline,
	models.KeyCompanyInfo,
	models.FieldScrapedDate,
}

// CSVSink writes results/<key>_jobs_<timestamp>.csv
type CSVSink struct {
	dir string
}

func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{dir: dir}
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(_ context.Context, batch Batch) ([]string, error) {
	if len(batch.Jobs) == 0 {
		return nil, nil
	}

	rows := make([]map[string]string, 0, len(batch.Jobs))
	for _, job := range batch.Jobs {
		rows = append(rows, rowFields(batch, job))
	}
	header := csvHeader(rows)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	name := fmt.Sprintf("%s_jobs_%s.csv", utils.SafeCompanyKey(batch.Company), scrapedAt(batch).Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return []string{path}, nil
}

func (s *CSVSink) Close() error { return nil }

// csvHeader keeps the known columns that occur in any row, then the rest
// sorted
func csvHeader(rows []map[string]string) []string {
	present := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			present[k] = true
		}
	}

	known := map[string]bool{}
	header := make([]string, 0, len(present))
	for _, col := range csvColumns {
		known[col] = true
		if present[col] {
			header = append(header, col)
		}
	}
	var extra []string
	for k := range present {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(header, extra...)
}
