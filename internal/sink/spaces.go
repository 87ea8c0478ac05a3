package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/utils"
)

// SpacesSink uploads the company document to a DigitalOcean Spaces (or any
// S3-compatible) bucket. Each scrape gets its own timestamped object plus a
// latest.json that is overwritten.
type SpacesSink struct {
	client     s3iface.S3API
	bucketName string
	baseURL    string
	prefix     string
	logger     types.Logger
}

// NewSpacesSink builds the sink from sink.spaces
func NewSpacesSink(cfg *config.Config) (*SpacesSink, error) {
	sp := cfg.Sink.Spaces
	if sp.AccessKeyID == "" || sp.AccessKeySecret == "" {
		return nil, fmt.Errorf("%w: spaces credentials are required", ErrWrite)
	}
	if sp.BucketName == "" {
		return nil, fmt.Errorf("%w: spaces bucket_name is required", ErrWrite)
	}

	endpoint := fmt.Sprintf("https://%s.digitaloceanspaces.com", sp.Region)
	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(sp.AccessKeyID, sp.AccessKeySecret, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(sp.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create spaces session: %w", err)
	}

	logging.GetGlobalLogger().Info("Spaces sink initialized", map[string]interface{}{
		"bucket_name": sp.BucketName,
		"region":      sp.Region,
		"endpoint":    endpoint,
	})
	return newSpacesSink(s3.New(sess), sp.BucketName, publicBaseURL(sp.CDNEndpoint, sp.BucketURL, sp.BucketName, sp.Region), sp.Prefix), nil
}

func newSpacesSink(client s3iface.S3API, bucket, baseURL, prefix string) *SpacesSink {
	return &SpacesSink{
		client:     client,
		bucketName: bucket,
		baseURL:    baseURL,
		prefix:     strings.Trim(prefix, "/"),
		logger:     logging.GetGlobalLogger().WithField("sink", "spaces"),
	}
}

func (s *SpacesSink) Name() string { return "spaces" }

func (s *SpacesSink) Write(ctx context.Context, batch Batch) ([]string, error) {
	if len(batch.Jobs) == 0 {
		return nil, nil
	}

	data, err := json.MarshalIndent(newCompanyDocument(batch), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	key := utils.SafeCompanyKey(batch.Company)
	stamp := scrapedAt(batch).UTC().Format("20060102_150405")
	objects := []string{
		path.Join(s.prefix, key, stamp+".json"),
		path.Join(s.prefix, key, "latest.json"),
	}

	urls := make([]string, 0, len(objects))
	for _, objectKey := range objects {
		_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucketName),
			Key:         aws.String(objectKey),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			s.logger.Error("Failed to upload job document", map[string]interface{}{
				"company":    batch.Company,
				"object_key": objectKey,
				"error":      err.Error(),
			})
			return urls, fmt.Errorf("%w: upload %s: %v", ErrWrite, objectKey, err)
		}
		urls = append(urls, s.baseURL+"/"+objectKey)
	}

	s.logger.Info("Job document uploaded", map[string]interface{}{
		"company": batch.Company,
		"jobs":    len(batch.Jobs),
		"url":     urls[0],
	})
	return urls, nil
}

func (s *SpacesSink) Close() error { return nil }

// publicBaseURL prefers the CDN endpoint, then the bucket URL, then the
// virtual-hosted bucket address
func publicBaseURL(cdn, bucketURL, bucket, region string) string {
	if cdn != "" {
		return strings.TrimRight(cdn, "/")
	}
	if bucketURL != "" {
		base := strings.TrimRight(bucketURL, "/")
		if !strings.HasPrefix(base, "https://") && !strings.HasPrefix(base, "http://") {
			base = "https://" + base
		}
		return base
	}
	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com", bucket, region)
}
