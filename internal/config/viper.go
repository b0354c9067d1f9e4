// Package config holds the configuration keys, defaults and Viper helpers
// used by the promise CLI.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
)

// Configuration keys. Environment variables use the upper-cased key with a
// PROMISE_ prefix, e.g. PROMISE_DATA_DIR.
const (
	KeyDataDir         = "data_dir"
	KeyStore           = "store"
	KeyBatchSize       = "batch_size"
	KeyResultLimit     = "result_limit"
	KeyDelay           = "delay"
	KeySkipAttempted   = "skip_attempted"
	KeyExcludePrefixes = "exclude_prefixes"
	KeyOpenLibraryURL  = "openlibrary_url"
	KeyArchiveURL      = "archive_url"
	KeyHTTPTimeout     = "http_timeout"
	KeyMaxRetries      = "max_retries"
	KeyUserAgent       = "user_agent"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyLogOutput       = "log_output"
)

// EnvPrefix is prepended to every environment variable Viper binds.
const EnvPrefix = "PROMISE"

// ConfigName is the base name of the config file searched in $HOME and the
// working directory.
const ConfigName = ".promise"

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDataDir, constants.DefaultDataDir)
	v.SetDefault(KeyStore, constants.DefaultStore)
	v.SetDefault(KeyBatchSize, constants.DefaultBatchSize)
	v.SetDefault(KeyResultLimit, constants.DefaultResultLimit)
	v.SetDefault(KeyDelay, constants.DefaultRegistrationDelay)
	v.SetDefault(KeySkipAttempted, true)
	v.SetDefault(KeyExcludePrefixes, constants.VendorPrefixes)
	v.SetDefault(KeyOpenLibraryURL, constants.OpenLibraryURL)
	v.SetDefault(KeyArchiveURL, constants.ArchiveURL)
	v.SetDefault(KeyHTTPTimeout, constants.DefaultHTTPTimeout)
	v.SetDefault(KeyMaxRetries, constants.MaxRetries)
	v.SetDefault(KeyUserAgent, constants.DefaultUserAgent)
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFormat, "auto")
	v.SetDefault(KeyLogOutput, "stderr")
}

// New returns a Viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Read loads configFile, or searches $HOME and the working directory for
// .promise.yaml when configFile is empty. A missing searched file is not an
// error; an explicitly named file must exist and parse.
func Read(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.NewConfigError("config", "cannot read "+configFile, err)
		}
		return nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	v.SetConfigType("yaml")
	v.SetConfigName(ConfigName)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.NewConfigError("config", "cannot read "+v.ConfigFileUsed(), err)
	}
	return nil
}

// GetString returns the value of key, falling back to the unprefixed
// upper-cased environment variable (LOG_LEVEL for log_level) when Viper has
// nothing.
func GetString(v *viper.Viper, key string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	return os.Getenv(strings.ToUpper(key))
}

// GetStringSlice returns a list value. Environment variables hold lists as
// comma-separated strings; empty elements are dropped.
func GetStringSlice(v *viper.Viper, key string) []string {
	var out []string
	for _, value := range v.GetStringSlice(key) {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
