package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/pkg/models"
)

func sel(s string) *string { return &s }

func sampleSelectors() models.SelectorMap {
	return models.SelectorMap{JobItem: sel("li.job"), Title: sel("h3"), PaginationNext: sel("a.next")}
}

func fixedNow() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func exerciseStore(t *testing.T, s SelectorStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, "Acme Corp")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "Acme Corp", sampleSelectors()))
	require.NoError(t, s.Save(ctx, "Globex", models.SelectorMap{JobItem: sel(".opening")}))

	got, err := s.Load(ctx, "acme corp")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.CompanyName)
	assert.Equal(t, "li.job", *got.Selectors.JobItem)
	assert.Nil(t, got.Selectors.Location)
	assert.True(t, got.LastUpdated.Equal(fixedNow()))

	// overwrite keeps one entry per key
	require.NoError(t, s.Save(ctx, "ACME CORP", models.SelectorMap{JobItem: sel("div.card")}))
	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ACME CORP", all[0].CompanyName)
	assert.Equal(t, "div.card", *all[0].Selectors.JobItem)
	assert.Equal(t, "Globex", all[1].CompanyName)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "configurations.json")
	s := NewFileStore(path)
	s.now = fixedNow
	s.logger = logging.NewMultiLogger()

	exerciseStore(t, s)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"acme_corp"`)
	assert.Contains(t, string(data), `"pagination_next": null`)
}

func TestFileStoreReplacesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configurations.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewFileStore(path)
	s.logger = logging.NewMultiLogger()

	_, err := s.Load(context.Background(), "Acme")
	assert.Error(t, err)

	require.NoError(t, s.Save(context.Background(), "Acme", sampleSelectors()))
	got, err := s.Load(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "li.job", *got.Selectors.JobItem)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.now = fixedNow

	exerciseStore(t, s)
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.ConfigurationsFile = filepath.Join(t.TempDir(), "c.json")

	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	cfg.Storage.Backend = "sqlite"
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "db", "selectors.db")
	s, err = New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	cfg.Storage.Backend = "etcd"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRedisStoreKeys(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	s := newRedisStore(client, "")
	assert.Equal(t, "jobscout:selectors:acme_corp", s.key("Acme Corp!"))
}

func TestSaverDelegates(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, Saver{Store: s}.SaveSelectors(context.Background(), "Initech", sampleSelectors()))
	got, err := s.Load(context.Background(), "initech")
	require.NoError(t, err)
	assert.Equal(t, "h3", *got.Selectors.Title)
}
