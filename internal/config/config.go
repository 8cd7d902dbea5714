package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, the validation pipeline, the
// external service backends, and the optional result database.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// Pipeline controls the parallel execution engine.
	Pipeline struct {
		// ReachabilityConcurrency is the worker pool size for the single-call
		// reachability phase. Larger pools raise throughput but also the risk
		// of tripping upstream rate limits.
		ReachabilityConcurrency int `env:"PIPELINE_REACHABILITY_CONCURRENCY" env-default:"20" yaml:"reachabilityConcurrency"`
		// OwnershipConcurrency is the worker pool size for the heavier
		// multi-call ownership phase (search + classify per candidate).
		OwnershipConcurrency int `env:"PIPELINE_OWNERSHIP_CONCURRENCY" env-default:"10" yaml:"ownershipConcurrency"`
		// ChunkSize groups candidates into batches of this size before
		// dispatch; progress is reported per completed task either way, but
		// chunking reduces scheduling overhead for very large runs. Zero
		// disables chunking.
		ChunkSize int `env:"PIPELINE_CHUNK_SIZE" env-default:"0" yaml:"chunkSize"`
	} `yaml:"pipeline"`

	// Reachability controls the page-load verification stage.
	Reachability struct {
		// Timeout bounds a single page load attempt.
		Timeout time.Duration `env:"REACHABILITY_TIMEOUT" env-default:"30s" yaml:"timeout"`
		// MaxAttempts is the total number of load attempts per candidate.
		MaxAttempts int `env:"REACHABILITY_MAX_ATTEMPTS" env-default:"3" yaml:"maxAttempts"`
		// RetryDelay is the fixed wait between attempts.
		RetryDelay time.Duration `env:"REACHABILITY_RETRY_DELAY" env-default:"2s" yaml:"retryDelay"`
	} `yaml:"reachability"`

	// Search configures the evidence search backend (serper.dev).
	Search struct {
		// APIKey authenticates against the search API.
		APIKey string `env:"SEARCH_API_KEY" yaml:"apiKey"`
		// Endpoint is the search API URL.
		Endpoint string `env:"SEARCH_ENDPOINT" env-default:"https://google.serper.dev/search" yaml:"endpoint"`
		// ResultsPerPage is the number of organic results requested per page.
		ResultsPerPage int `env:"SEARCH_RESULTS_PER_PAGE" env-default:"10" yaml:"resultsPerPage"`
		// MaxPages is the maximum number of sequential pages fetched per query.
		MaxPages int `env:"SEARCH_MAX_PAGES" env-default:"1" yaml:"maxPages"`
		// RequestsPerSecond throttles outbound search calls across all workers.
		RequestsPerSecond float64 `env:"SEARCH_REQUESTS_PER_SECOND" env-default:"5" yaml:"requestsPerSecond"`
		// RateLimitBackoff is the extra wait applied after the API reports a
		// quota error before the call is retried once.
		RateLimitBackoff time.Duration `env:"SEARCH_RATE_LIMIT_BACKOFF" env-default:"10s" yaml:"rateLimitBackoff"`
	} `yaml:"search"`

	// LLM configures the ownership classification backend
	// (an Azure OpenAI chat completions deployment).
	LLM struct {
		// Endpoint is the Azure OpenAI resource endpoint, e.g.
		// https://myresource.openai.azure.com.
		Endpoint string `env:"LLM_ENDPOINT" yaml:"endpoint"`
		// APIKey authenticates against the deployment.
		APIKey string `env:"LLM_API_KEY" yaml:"apiKey"`
		// Deployment is the chat model deployment name.
		Deployment string `env:"LLM_DEPLOYMENT" yaml:"deployment"`
		// APIVersion selects the service API version.
		APIVersion string `env:"LLM_API_VERSION" env-default:"2023-08-01-preview" yaml:"apiVersion"`
		// CostInputPer1K is the USD price of 1000 prompt tokens.
		CostInputPer1K float64 `env:"LLM_COST_INPUT_PER_1K" env-default:"0.005" yaml:"costInputPer1K"`
		// CostOutputPer1K is the USD price of 1000 completion tokens.
		CostOutputPer1K float64 `env:"LLM_COST_OUTPUT_PER_1K" env-default:"0.015" yaml:"costOutputPer1K"`
	} `yaml:"llm"`

	// Translate configures the translation backend used by the
	// regional-language retry.
	Translate struct {
		// Endpoint is the translation API URL (a LibreTranslate-compatible server).
		Endpoint string `env:"TRANSLATE_ENDPOINT" env-default:"http://localhost:5000/translate" yaml:"endpoint"`
		// APIKey authenticates against the translation API when required.
		APIKey string `env:"TRANSLATE_API_KEY" yaml:"apiKey"`
	} `yaml:"translate"`

	// Validator controls the ownership classification policy.
	Validator struct {
		// ConfirmOwnership enables the second-pass ownership-clarity check on
		// Yes verdicts.
		ConfirmOwnership bool `env:"VALIDATOR_CONFIRM_OWNERSHIP" env-default:"true" yaml:"confirmOwnership"`
		// ConfirmRegionalRetry allows the confirm pass to spend the regional
		// retry as well. Off by default: the retry budget is consumed at most
		// once per domain.
		ConfirmRegionalRetry bool `env:"VALIDATOR_CONFIRM_REGIONAL_RETRY" env-default:"false" yaml:"confirmRegionalRetry"`
		// ExtraDenylist extends the built-in social/platform denylist with
		// additional registrable domains to reject during normalization.
		ExtraDenylist []string `env:"VALIDATOR_EXTRA_DENYLIST" yaml:"extraDenylist"`
	} `yaml:"validator"`

	// Metrics contains the metrics listener configuration.
	Metrics struct {
		// Addr is the address the metrics HTTP listener binds to during a run.
		// Empty disables the listener.
		Addr string `env:"METRICS_ADDR" env-default:"" yaml:"addr"`
		// Path defines the URL path where metrics are exposed.
		Path string `env:"METRICS_PATH" env-default:"/metrics" yaml:"path"`
	} `yaml:"metrics"`

	// Database contains the optional result store connection settings.
	// Runs are persisted only when Enabled is true.
	Database struct {
		// Enabled turns run persistence on.
		Enabled bool `env:"DATABASE_ENABLED" env-default:"false" yaml:"enabled"`
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"myuser" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"mypassword" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"domaincheck" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// GracefulShutdownTimeout is the maximum duration to wait for an
	// interrupted run to flush its outputs during shutdown.
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}
