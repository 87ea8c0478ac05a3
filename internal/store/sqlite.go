package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS company_configurations (
	company_key  TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	selectors    TEXT NOT NULL,
	last_updated TEXT NOT NULL
)`

// SQLiteStore keeps configurations in a single sqlite table
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (and creates) the database at path; ":memory:" works
// for tests
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, utils.NewStorageError("failed to create database directory").Wrap(err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, utils.NewStorageError("failed to open sqlite database").Wrap(err)
	}
	// one connection so an in-memory database is shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, utils.NewStorageError("failed to create schema").Wrap(err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, company string) (*models.CompanyConfiguration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT company_name, selectors, last_updated FROM company_configurations WHERE company_key = ?`,
		utils.SafeCompanyKey(company))

	cfg, err := scanConfiguration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, utils.NewStorageError("failed to load configuration").Wrap(err)
	}
	return cfg, nil
}

func (s *SQLiteStore) Save(ctx context.Context, company string, selectors models.SelectorMap) error {
	cfg := newConfiguration(company, selectors, s.now())
	data, err := json.Marshal(cfg.Selectors)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO company_configurations (company_key, company_name, selectors, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (company_key) DO UPDATE SET
			company_name = excluded.company_name,
			selectors    = excluded.selectors,
			last_updated = excluded.last_updated`,
		utils.SafeCompanyKey(company), cfg.CompanyName, string(data), cfg.LastUpdated.Format(time.RFC3339Nano))
	if err != nil {
		return utils.NewStorageError("failed to save configuration").Wrap(err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.CompanyConfiguration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_name, selectors, last_updated FROM company_configurations ORDER BY company_key`)
	if err != nil {
		return nil, utils.NewStorageError("failed to list configurations").Wrap(err)
	}
	defer rows.Close()

	out := []models.CompanyConfiguration{}
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, utils.NewStorageError("failed to read configuration row").Wrap(err)
		}
		out = append(out, *cfg)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConfiguration(row scanner) (*models.CompanyConfiguration, error) {
	var (
		cfg       models.CompanyConfiguration
		selectors string
		updated   string
	)
	if err := row.Scan(&cfg.CompanyName, &selectors, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(selectors), &cfg.Selectors); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return nil, err
	}
	cfg.LastUpdated = ts
	return &cfg, nil
}
