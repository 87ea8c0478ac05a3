package sink

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS job_records (
	company_key         TEXT        NOT NULL,
	job_key             TEXT        NOT NULL,
	company             TEXT        NOT NULL,
	title               TEXT,
	location            TEXT,
	job_id              TEXT,
	job_url             TEXT,
	preview_description TEXT,
	details             JSONB       NOT NULL DEFAULT '{}'::jsonb,
	scraped_at          TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (company_key, job_key)
)`

const insertJobRecord = `
INSERT INTO job_records
	(company_key, job_key, company, title, location, job_id, job_url, preview_description, details, scraped_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (company_key, job_key) DO NOTHING`

// PostgresSink inserts records in batches; a record already stored for the
// same company and job key is left untouched
type PostgresSink struct {
	pool      *pgxpool.Pool
	batchSize int
	logger    types.Logger
}

func NewPostgresSink(ctx context.Context, url string) (*PostgresSink, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: postgres_url is required for the postgres sink", ErrWrite)
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create job_records table: %w", err)
	}
	return &PostgresSink{pool: pool, batchSize: 200, logger: logging.GetGlobalLogger()}, nil
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, batch Batch) ([]string, error) {
	if len(batch.Jobs) == 0 {
		return nil, nil
	}

	rows := make([][]any, 0, len(batch.Jobs))
	for _, job := range batch.Jobs {
		row, err := postgresRow(batch, job)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWrite, err)
		}
		rows = append(rows, row)
	}

	inserted := 0
	for i := 0; i < len(rows); i += s.batchSize {
		j := min(i+s.batchSize, len(rows))
		b := &pgx.Batch{}
		for _, row := range rows[i:j] {
			b.Queue(insertJobRecord, row...)
		}

		br := s.pool.SendBatch(ctx, b)
		for k := i; k < j; k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return nil, fmt.Errorf("%w: %v", ErrWrite, err)
			}
			inserted += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}

	s.logger.Info("Job records stored", map[string]interface{}{
		"company":  batch.Company,
		"received": len(rows),
		"inserted": inserted,
	})
	return []string{fmt.Sprintf("postgres:job_records(%d new)", inserted)}, nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func postgresRow(batch Batch, job models.JobRecord) ([]any, error) {
	details, err := json.Marshal(nonNilDetails(job.Details))
	if err != nil {
		return nil, err
	}
	company := batch.Company
	if company == "" {
		company = job.Company
	}
	return []any{
		utils.SafeCompanyKey(company),
		jobKey(job),
		company,
		job.Title,
		job.Location,
		job.JobID,
		job.JobURL,
		job.PreviewDescription,
		string(details),
		scrapedAt(batch),
	}, nil
}

// jobKey identifies a posting across runs: the job id, else the job url,
// else a digest of title and location
func jobKey(job models.JobRecord) string {
	if job.JobID != nil && *job.JobID != "" {
		return "id:" + *job.JobID
	}
	if job.JobURL != nil && *job.JobURL != "" {
		return "url:" + *job.JobURL
	}
	sum := sha1.Sum([]byte(utils.Deref(job.Title) + "\x00" + utils.Deref(job.Location)))
	return "hash:" + hex.EncodeToString(sum[:])
}

func nonNilDetails(d map[string]string) map[string]string {
	if d == nil {
		return map[string]string{}
	}
	return d
}
