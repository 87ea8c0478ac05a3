package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jobscout/internal/logging/types"
)

// ModelConfig is one entry of the ordered model hierarchy
type ModelConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		Host         string        `yaml:"host"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
		RateLimit    float64       `yaml:"rate_limit"` // requests per second per client, 0 disables
	} `yaml:"server"`

	Workers struct {
		PoolSize    int           `yaml:"pool_size"`
		QueueSize   int           `yaml:"queue_size"`
		TaskTimeout time.Duration `yaml:"task_timeout"`
		MaxTaskAge  time.Duration `yaml:"max_task_age"`
		CleanupTick time.Duration `yaml:"cleanup_interval"`
	} `yaml:"workers"`

	LLM struct {
		Provider          string        `yaml:"provider"` // claude or openai
		APIKey            string        `yaml:"api_key"`
		BaseURL           string        `yaml:"base_url"`
		Models            []ModelConfig `yaml:"models"`
		MaxRetries        int           `yaml:"max_retries"`
		RetryDelay        time.Duration `yaml:"retry_delay"`
		RequestsPerMinute int           `yaml:"requests_per_minute"`
		RequestBuffer     time.Duration `yaml:"request_buffer"`
		Cooldown          time.Duration `yaml:"cooldown"`
		MaxTokens         int           `yaml:"max_tokens"`
		Temperature       float64       `yaml:"temperature"`
		Timeout           time.Duration `yaml:"timeout"`
		MaxMarkupChars    int           `yaml:"max_markup_chars"`
	} `yaml:"llm"`

	Scraper struct {
		Engine           string        `yaml:"engine"`        // headed or static
		MarkupSource     string        `yaml:"markup_source"` // engine or firecrawl, used by scout
		UserAgent        string        `yaml:"user_agent"`
		HeadlessMode     bool          `yaml:"headless_mode"`
		StealthMode      bool          `yaml:"stealth_mode"`
		BrowserTimeout   time.Duration `yaml:"browser_timeout"`
		PageSettleWait   time.Duration `yaml:"page_settle_wait"`
		DetailSettleWait time.Duration `yaml:"detail_settle_wait"`
		SelectorTimeout  time.Duration `yaml:"selector_timeout"`
		ExtractDetails   bool          `yaml:"extract_details"`
		MaxPages         int           `yaml:"max_pages"` // 0 means follow pagination to the end
		MaxBrowsers      int           `yaml:"max_browsers"`
		HostRateLimit    float64       `yaml:"host_rate_limit"` // page loads per second per host, 0 disables
		HostBurst        int           `yaml:"host_burst"`
	} `yaml:"scraper"`

	Firecrawl struct {
		APIKey     string        `yaml:"api_key"`
		APIURL     string        `yaml:"api_url"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
	} `yaml:"firecrawl"`

	Storage struct {
		Backend            string `yaml:"backend"` // file, redis or sqlite
		ConfigurationsFile string `yaml:"configurations_file"`
		SQLitePath         string `yaml:"sqlite_path"`
		RedisKeyPrefix     string `yaml:"redis_key_prefix"`
	} `yaml:"storage"`

	Sink struct {
		Formats     []string `yaml:"formats"` // csv, json, postgres, spaces
		ResultsDir  string   `yaml:"results_dir"`
		DataDir     string   `yaml:"data_dir"`
		PostgresURL string   `yaml:"postgres_url"`

		// Spaces uploads the company JSON document to S3-compatible storage
		Spaces struct {
			BucketURL       string `yaml:"bucket_url"`
			CDNEndpoint     string `yaml:"cdn_endpoint"`
			AccessKeyID     string `yaml:"access_key_id"`
			AccessKeySecret string `yaml:"access_key_secret"`
			Region          string `yaml:"region"`
			BucketName      string `yaml:"bucket_name"`
			Prefix          string `yaml:"prefix"`
		} `yaml:"spaces"`
	} `yaml:"sink"`

	Redis struct {
		URL      string        `yaml:"url"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"redis"`

	Batch struct {
		CompaniesFile string `yaml:"companies_file"`
		Concurrency   int    `yaml:"concurrency"`
		Schedule      string `yaml:"schedule"` // cron spec, empty disables
	} `yaml:"batch"`

	Logging types.LoggerConfig `yaml:"logging"`
}

// DefaultModels is the hierarchy used when none is configured: fast and
// cheap first, most reliable last.
func DefaultModels() []ModelConfig {
	return []ModelConfig{
		{Name: "claude-3-5-haiku-latest", Description: "primary: fast, low cost"},
		{Name: "claude-3-7-sonnet-latest", Description: "fallback: stronger reasoning"},
		{Name: "claude-3-haiku-20240307", Description: "emergency: most stable"},
	}
}

// Default returns a configuration populated with defaults only
func Default() *Config {
	c := &Config{}

	c.Server.Port = 8080
	c.Server.Host = "0.0.0.0"
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 15 * time.Minute
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.RateLimit = 5

	c.Workers.PoolSize = 2
	c.Workers.QueueSize = 100
	c.Workers.TaskTimeout = 30 * time.Minute
	c.Workers.MaxTaskAge = 24 * time.Hour
	c.Workers.CleanupTick = time.Hour

	c.LLM.Provider = "claude"
	c.LLM.Models = DefaultModels()
	c.LLM.MaxRetries = 3
	c.LLM.RetryDelay = 2 * time.Second
	c.LLM.RequestsPerMinute = 15
	c.LLM.RequestBuffer = time.Second
	c.LLM.Cooldown = 5 * time.Minute
	c.LLM.MaxTokens = 1024
	c.LLM.Temperature = 0.1
	c.LLM.Timeout = 120 * time.Second
	c.LLM.MaxMarkupChars = 150000

	c.Scraper.Engine = "headed"
	c.Scraper.MarkupSource = "engine"
	c.Scraper.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	c.Scraper.HeadlessMode = true
	c.Scraper.StealthMode = true
	c.Scraper.BrowserTimeout = 60 * time.Second
	c.Scraper.PageSettleWait = 5 * time.Second
	c.Scraper.DetailSettleWait = 2 * time.Second
	c.Scraper.SelectorTimeout = 30 * time.Second
	c.Scraper.ExtractDetails = true
	c.Scraper.MaxBrowsers = 2
	c.Scraper.HostRateLimit = 2
	c.Scraper.HostBurst = 5

	c.Firecrawl.APIURL = "https://api.firecrawl.dev"
	c.Firecrawl.Timeout = 60 * time.Second
	c.Firecrawl.MaxRetries = 3

	c.Storage.Backend = "file"
	c.Storage.ConfigurationsFile = "configs/configurations.json"
	c.Storage.SQLitePath = "configs/selectors.db"
	c.Storage.RedisKeyPrefix = "jobscout:selectors:"

	c.Sink.Formats = []string{"csv", "json"}
	c.Sink.ResultsDir = "results"
	c.Sink.DataDir = "data"
	c.Sink.Spaces.Region = "blr1"
	c.Sink.Spaces.Prefix = "jobs"

	c.Redis.URL = "redis://localhost:6379"
	c.Redis.Timeout = 5 * time.Second

	c.Batch.CompaniesFile = "companies.json"
	c.Batch.Concurrency = 1

	c.Logging.Level = "info"
	c.Logging.Format = "json"

	return c
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareEnvVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands ${VAR} and $VAR references, leaving unknown ones as-is
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
	return bareEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}

// LoadConfig loads defaults, then the YAML file (if present), then
// environment overrides. A missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	config.loadFromEnv()

	if len(config.LLM.Models) == 0 {
		config.LLM.Models = DefaultModels()
	}

	return config, nil
}

// Validate reports configuration that would make the service unusable
func (c *Config) Validate() error {
	var problems []string

	if len(c.LLM.Models) == 0 {
		problems = append(problems, "llm.models must list at least one model")
	}
	if c.LLM.MaxRetries < 1 {
		problems = append(problems, "llm.max_retries must be at least 1")
	}
	if c.LLM.RequestsPerMinute < 1 {
		problems = append(problems, "llm.requests_per_minute must be at least 1")
	}
	switch c.Scraper.Engine {
	case "headed", "static":
	default:
		problems = append(problems, fmt.Sprintf("scraper.engine %q is not supported", c.Scraper.Engine))
	}
	switch c.Storage.Backend {
	case "file", "redis", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q is not supported", c.Storage.Backend))
	}
	if c.Batch.Concurrency < 1 {
		problems = append(problems, "batch.concurrency must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ModelNames returns the configured hierarchy names in priority order
func (c *Config) ModelNames() []string {
	names := make([]string, 0, len(c.LLM.Models))
	for _, m := range c.LLM.Models {
		names = append(names, m.Name)
	}
	return names
}

// loadFromEnv applies environment variable overrides
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	} else if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = apiKey
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		c.LLM.BaseURL = baseURL
	}
	// LLM_MODELS is a comma separated hierarchy, primary first
	if models := os.Getenv("LLM_MODELS"); models != "" {
		var hierarchy []ModelConfig
		for _, name := range strings.Split(models, ",") {
			if name = strings.TrimSpace(name); name != "" {
				hierarchy = append(hierarchy, ModelConfig{Name: name})
			}
		}
		if len(hierarchy) > 0 {
			c.LLM.Models = hierarchy
		}
	}
	if v := os.Getenv("LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LLM.MaxRetries = n
		}
	}
	if v := os.Getenv("LLM_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.LLM.RetryDelay = d
		}
	}
	if v := os.Getenv("LLM_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LLM.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("LLM_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.LLM.Cooldown = d
		}
	}

	if engine := os.Getenv("SCRAPER_ENGINE"); engine != "" {
		c.Scraper.Engine = engine
	}
	if headless := os.Getenv("SCRAPER_HEADLESS"); headless != "" {
		c.Scraper.HeadlessMode = headless == "true" || headless == "1"
	}

	if key := os.Getenv("FIRECRAWL_API_KEY"); key != "" {
		c.Firecrawl.APIKey = key
	}
	if url := os.Getenv("FIRECRAWL_API_URL"); url != "" {
		c.Firecrawl.APIURL = url
	}

	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Sink.PostgresURL = dsn
	}

	if bucketURL := os.Getenv("BUCKET_URL"); bucketURL != "" {
		c.Sink.Spaces.BucketURL = bucketURL
	}
	if cdnEndpoint := os.Getenv("BUCKET_CDN_ENDPOINT"); cdnEndpoint != "" {
		c.Sink.Spaces.CDNEndpoint = cdnEndpoint
	}
	if accessKeyID := os.Getenv("BUCKET_ACCESS_KEY_ID"); accessKeyID != "" {
		c.Sink.Spaces.AccessKeyID = accessKeyID
	}
	if accessKeySecret := os.Getenv("BUCKET_ACCESS_KEY_SECRET"); accessKeySecret != "" {
		c.Sink.Spaces.AccessKeySecret = accessKeySecret
	}
	if region := os.Getenv("BUCKET_REGION"); region != "" {
		c.Sink.Spaces.Region = region
	}
	if bucketName := os.Getenv("BUCKET_NAME"); bucketName != "" {
		c.Sink.Spaces.BucketName = bucketName
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}
	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if file := os.Getenv("COMPANIES_FILE"); file != "" {
		c.Batch.CompaniesFile = file
	}
	if schedule := os.Getenv("BATCH_SCHEDULE"); schedule != "" {
		c.Batch.Schedule = schedule
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}
}
