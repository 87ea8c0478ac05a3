package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/pkg/models"
)

func str(s string) *string { return &s }

func sampleBatch() Batch {
	return Batch{
		Company:   "Acme Corp",
		CareerURL: "https://acme.test/careers",
		ScrapedAt: time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC),
		Enhanced:  true,
		Jobs: []models.JobRecord{
			{
				Title:  str("Backend Engineer"),
				JobID:  str("101"),
				JobURL: str("https://acme.test/jobs/101"),
				Details: map[string]string{
					models.KeySalary:        "$100k",
					models.FieldDepartment:  "Platform",
					models.KeyRequirements:  "Go\nSQL",
				},
			},
			{
				Title:    str("Designer"),
				Location: str("Remote"),
			},
		},
	}
}

func TestCSVSinkWritesOrderedHeader(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewCSVSink(dir).Write(context.Background(), sampleBatch())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "acme_corp_jobs_20240501_093015.csv"), paths[0])

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"title", "location", "company", "job_id", "job_url",
		"requirements", "salary", "scraped_date", "department",
	}, records[0])
	assert.Equal(t, []string{
		"Backend Engineer", "", "Acme Corp", "101", "https://acme.test/jobs/101",
		"Go\nSQL", "$100k", "2024-05-01", "Platform",
	}, records[1])
	assert.Equal(t, "Remote", records[2][1])
}

func TestJSONSinkDropsAbsentFields(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewJSONSink(dir).Write(context.Background(), sampleBatch())
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "acme_corp.json")}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var doc CompanyDocument
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "Acme Corp", doc.CompanyName)
	assert.Equal(t, "https://acme.test/careers", doc.CareerURL)
	assert.Equal(t, 2, doc.TotalJobs)
	assert.True(t, doc.EnhancedExtraction)
	require.Len(t, doc.Jobs, 2)
	assert.Equal(t, "Designer", doc.Jobs[1]["title"])
	assert.NotContains(t, doc.Jobs[1], "job_id")
	assert.Equal(t, "2024-05-01", doc.Jobs[1]["scraped_date"])
	assert.Equal(t, "Acme Corp", doc.Jobs[1]["company"])
}

func TestEmptyBatchWritesNothing(t *testing.T) {
	dir := t.TempDir()
	multi := NewMulti(NewCSVSink(dir), NewJSONSink(dir))
	multi.logger = logging.NewMultiLogger()

	paths, err := multi.Write(context.Background(), Batch{Company: "Acme"})
	require.NoError(t, err)
	assert.Empty(t, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingSink struct{}

func (failingSink) Name() string { return "broken" }

func (failingSink) Write(context.Context, Batch) ([]string, error) {
	return nil, errors.New("disk full")
}

func (failingSink) Close() error { return nil }

func TestMultiContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	multi := NewMulti(failingSink{}, NewJSONSink(dir))
	multi.logger = logging.NewMultiLogger()

	paths, err := multi.Write(context.Background(), sampleBatch())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{filepath.Join(dir, "acme_corp.json")}, paths)
	assert.Equal(t, "multi(broken,json)", multi.Name())
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	m, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "multi(csv,json)", m.Name())

	cfg.Sink.Formats = []string{"xml"}
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)

	cfg.Sink.Formats = []string{"postgres"}
	_, err = New(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrWrite)

	cfg.Sink.Formats = []string{"spaces"}
	_, err = New(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrWrite)
}

type fakeS3 struct {
	s3iface.S3API
	puts []*s3.PutObjectInput
	err  error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func TestSpacesSinkUploadsDocument(t *testing.T) {
	client := &fakeS3{}
	s := newSpacesSink(client, "bucket", "https://cdn.test", "/jobs/")

	urls, err := s.Write(context.Background(), sampleBatch())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.test/jobs/acme_corp/20240501_093015.json",
		"https://cdn.test/jobs/acme_corp/latest.json",
	}, urls)

	require.Len(t, client.puts, 2)
	assert.Equal(t, "bucket", aws.StringValue(client.puts[0].Bucket))
	assert.Equal(t, "application/json", aws.StringValue(client.puts[0].ContentType))

	var doc CompanyDocument
	require.NoError(t, json.NewDecoder(client.puts[0].Body).Decode(&doc))
	assert.Equal(t, "Acme Corp", doc.CompanyName)
	assert.Equal(t, 2, doc.TotalJobs)
}

func TestSpacesSinkUploadFailure(t *testing.T) {
	s := newSpacesSink(&fakeS3{err: errors.New("denied")}, "bucket", "https://cdn.test", "jobs")
	_, err := s.Write(context.Background(), sampleBatch())
	assert.ErrorIs(t, err, ErrWrite)

	urls, err := s.Write(context.Background(), Batch{Company: "Acme"})
	assert.NoError(t, err)
	assert.Empty(t, urls)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.test", publicBaseURL("https://cdn.test/", "b.test", "b", "r"))
	assert.Equal(t, "https://b.test", publicBaseURL("", "b.test/", "b", "r"))
	assert.Equal(t, "https://b.blr1.digitaloceanspaces.com", publicBaseURL("", "", "b", "blr1"))
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Sink.ResultsDir = filepath.Join(root, "results")
	cfg.Sink.DataDir = filepath.Join(root, "data")
	cfg.Storage.ConfigurationsFile = filepath.Join(root, "configs", "configurations.json")

	require.NoError(t, EnsureDirs(cfg))
	for _, dir := range []string{"results", "data", "configs"} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestJobKeyPriority(t *testing.T) {
	assert.Equal(t, "id:7", jobKey(models.JobRecord{JobID: str("7"), JobURL: str("https://x")}))
	assert.Equal(t, "url:https://x", jobKey(models.JobRecord{JobURL: str("https://x")}))

	a := jobKey(models.JobRecord{Title: str("Engineer"), Location: str("Berlin")})
	b := jobKey(models.JobRecord{Title: str("Engineer"), Location: str("Paris")})
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "hash:")
}

func TestPostgresRow(t *testing.T) {
	batch := sampleBatch()
	row, err := postgresRow(batch, batch.Jobs[0])
	require.NoError(t, err)
	require.Len(t, row, 10)
	assert.Equal(t, "acme_corp", row[0])
	assert.Equal(t, "id:101", row[1])
	assert.JSONEq(t, `{"salary":"$100k","department":"Platform","requirements":"Go\nSQL"}`, row[8].(string))
	assert.Equal(t, batch.ScrapedAt, row[9])
}
