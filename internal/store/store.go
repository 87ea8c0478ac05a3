// Package store persists discovered list selector maps per company.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobscout/internal/config"
	"jobscout/pkg/models"
)

// ErrNotFound is returned by Load when a company has no stored selectors
var ErrNotFound = errors.New("no configuration stored for company")

// SelectorStore is keyed by utils.SafeCompanyKey of the company name, so
// "Acme Corp" and "acme corp" share one entry
type SelectorStore interface {
	Load(ctx context.Context, company string) (*models.CompanyConfiguration, error)
	Save(ctx context.Context, company string, selectors models.SelectorMap) error
	List(ctx context.Context) ([]models.CompanyConfiguration, error)
	Close() error
}

// New builds the backend named by storage.backend
func New(ctx context.Context, cfg *config.Config) (SelectorStore, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "", "file":
		return NewFileStore(cfg.Storage.ConfigurationsFile), nil
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.Storage.SQLitePath)
	case "redis":
		return NewRedisStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// Saver adapts a SelectorStore to the extraction runner's saver hook
type Saver struct {
	Store SelectorStore
}

func (s Saver) SaveSelectors(ctx context.Context, company string, selectors models.SelectorMap) error {
	return s.Store.Save(ctx, company, selectors)
}

func newConfiguration(company string, selectors models.SelectorMap, now time.Time) models.CompanyConfiguration {
	return models.CompanyConfiguration{
		CompanyName: company,
		Selectors:   selectors,
		LastUpdated: now.UTC(),
	}
}
