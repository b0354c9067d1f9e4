package app

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/agentstation/promise/internal/config"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files, then overridden by flags.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Storage
	DataDir string
	Store   string

	// Reconciliation and registration
	BatchSize       int
	ResultLimit     int
	Delay           time.Duration
	SkipAttempted   bool
	ExcludePrefixes []string

	// Remote services
	OpenLibraryURL string
	ArchiveURL     string
	HTTPTimeout    time.Duration
	MaxRetries     int
	UserAgent      string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by setupCommand)
// 2. Environment variables (PROMISE_*; LOG_* for logging)
// 3. .env files
// 4. Config file (configFile, or ~/.promise.yaml / ./.promise.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	if configFile == "" {
		configFile = os.Getenv(config.EnvPrefix + "_CONFIG")
	}

	v := config.New()
	if err := config.Read(v, configFile); err != nil {
		return nil, err
	}

	return &Config{
		ConfigFile: v.ConfigFileUsed(),

		DataDir: v.GetString(config.KeyDataDir),
		Store:   v.GetString(config.KeyStore),

		BatchSize:       v.GetInt(config.KeyBatchSize),
		ResultLimit:     v.GetInt(config.KeyResultLimit),
		Delay:           v.GetDuration(config.KeyDelay),
		SkipAttempted:   v.GetBool(config.KeySkipAttempted),
		ExcludePrefixes: config.GetStringSlice(v, config.KeyExcludePrefixes),

		OpenLibraryURL: v.GetString(config.KeyOpenLibraryURL),
		ArchiveURL:     v.GetString(config.KeyArchiveURL),
		HTTPTimeout:    v.GetDuration(config.KeyHTTPTimeout),
		MaxRetries:     v.GetInt(config.KeyMaxRetries),
		UserAgent:      v.GetString(config.KeyUserAgent),

		LogLevel:  config.GetString(v, config.KeyLogLevel),
		LogFormat: config.GetString(v, config.KeyLogFormat),
		LogOutput: config.GetString(v, config.KeyLogOutput),
	}, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags so flag values take
// precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local does not override values already set by .env or the shell.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
