// Package sink writes scraped job records to their destinations.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
)

// ErrWrite wraps every destination failure so callers can tell sink errors
// apart from scraping errors
var ErrWrite = errors.New("sink_write_failed")

// Batch is the output of one company scrape
type Batch struct {
	Company   string
	CareerURL string
	Jobs      []models.JobRecord
	ScrapedAt time.Time
	// Enhanced marks batches that went through detail extraction
	Enhanced bool
}

// Sink persists a batch and returns the artifacts it produced (file paths
// or destination descriptions). An empty batch produces nothing.
type Sink interface {
	Name() string
	Write(ctx context.Context, batch Batch) ([]string, error)
	Close() error
}

// Multi fans a batch out to every sink. Each sink is attempted even when an
// earlier one fails.
type Multi struct {
	sinks  []Sink
	logger types.Logger
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, logger: logging.GetGlobalLogger()}
}

func (m *Multi) Name() string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name())
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

func (m *Multi) Write(ctx context.Context, batch Batch) ([]string, error) {
	if len(batch.Jobs) == 0 {
		m.logger.Info("No jobs to save", map[string]interface{}{"company": batch.Company})
		return nil, nil
	}

	var (
		artifacts []string
		errs      []error
	)
	for _, s := range m.sinks {
		out, err := s.Write(ctx, batch)
		if err != nil {
			m.logger.Error("Sink write failed", map[string]interface{}{
				"sink":    s.Name(),
				"company": batch.Company,
				"error":   err.Error(),
			})
			errs = append(errs, err)
			continue
		}
		artifacts = append(artifacts, out...)
	}
	return artifacts, errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// New builds the sinks listed in sink.formats
func New(ctx context.Context, cfg *config.Config) (*Multi, error) {
	var sinks []Sink
	for _, format := range cfg.Sink.Formats {
		switch strings.ToLower(strings.TrimSpace(format)) {
		case "csv":
			sinks = append(sinks, NewCSVSink(cfg.Sink.ResultsDir))
		case "json":
			sinks = append(sinks, NewJSONSink(cfg.Sink.DataDir))
		case "postgres":
			pg, err := NewPostgresSink(ctx, cfg.Sink.PostgresURL)
			if err != nil {
				for _, s := range sinks {
					_ = s.Close()
				}
				return nil, err
			}
			sinks = append(sinks, pg)
		case "spaces":
			sp, err := NewSpacesSink(cfg)
			if err != nil {
				for _, s := range sinks {
					_ = s.Close()
				}
				return nil, err
			}
			sinks = append(sinks, sp)
		case "":
		default:
			return nil, fmt.Errorf("unsupported sink format: %s", format)
		}
	}
	return NewMulti(sinks...), nil
}

// EnsureDirs creates the output and configuration directories
func EnsureDirs(cfg *config.Config) error {
	dirs := []string{cfg.Sink.ResultsDir, cfg.Sink.DataDir}
	if cfg.Storage.ConfigurationsFile != "" {
		dirs = append(dirs, filepath.Dir(cfg.Storage.ConfigurationsFile))
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// rowFields flattens a record for file output: company and scraped_date are
// always set from the batch
func rowFields(batch Batch, job models.JobRecord) map[string]string {
	fields := job.Fields()
	if batch.Company != "" {
		fields[models.FieldCompany] = batch.Company
	}
	fields[models.FieldScrapedDate] = scrapedAt(batch).Format("2006-01-02")
	return fields
}

func scrapedAt(batch Batch) time.Time {
	if batch.ScrapedAt.IsZero() {
		return time.Now()
	}
	return batch.ScrapedAt
}
