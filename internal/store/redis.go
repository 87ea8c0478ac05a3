package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// RedisStore keeps one JSON value per company under a key prefix
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
	logger types.Logger
}

// NewRedisStore connects using redis.url and fails when the server does
// not answer a ping
func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// Fallback to default configuration
		opts = &redis.Options{Addr: "localhost:6379"}
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	timeout := cfg.Redis.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	s := newRedisStore(redis.NewClient(opts), cfg.Storage.RedisKeyPrefix)
	if err := s.Ping(ctx); err != nil {
		s.client.Close()
		return nil, utils.NewStorageError("redis unreachable").Wrap(err)
	}
	return s, nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "jobscout:selectors:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
		logger: logging.GetGlobalLogger(),
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Load(ctx context.Context, company string) (*models.CompanyConfiguration, error) {
	raw, err := s.client.Get(ctx, s.key(company)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, utils.NewStorageError("failed to load configuration").Wrap(err)
	}

	var cfg models.CompanyConfiguration
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, utils.NewStorageError("failed to decode configuration").Wrap(err)
	}
	return &cfg, nil
}

// Save stores the configuration without expiry
func (s *RedisStore) Save(ctx context.Context, company string, selectors models.SelectorMap) error {
	data, err := json.Marshal(newConfiguration(company, selectors, s.now()))
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := s.client.Set(ctx, s.key(company), data, 0).Err(); err != nil {
		s.logger.Error("Failed to save configuration", map[string]interface{}{
			"company": company,
			"error":   err.Error(),
		})
		return utils.NewStorageError("failed to save configuration").Wrap(err)
	}
	return nil
}

// List scans the prefix and returns configurations ordered by key
func (s *RedisStore) List(ctx context.Context) ([]models.CompanyConfiguration, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, utils.NewStorageError("failed to scan configurations").Wrap(err)
	}
	sort.Strings(keys)

	out := []models.CompanyConfiguration{}
	if len(keys) == 0 {
		return out, nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, utils.NewStorageError("failed to read configurations").Wrap(err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var cfg models.CompanyConfiguration
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			s.logger.Warn("Skipping undecodable configuration", map[string]interface{}{"key": keys[i]})
			continue
		}
		out = append(out, cfg)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(company string) string {
	return s.prefix + utils.SafeCompanyKey(company)
}
