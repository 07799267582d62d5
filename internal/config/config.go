// Package config loads process configuration for the command line from
// config files, .env files and the environment.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/geomanifest/pkg/constants"
	pkgerrors "github.com/agentstation/geomanifest/pkg/errors"
)

// EnvPrefix prefixes every environment key, e.g. GEOMANIFEST_PROJECTS_DIR.
const EnvPrefix = "GEOMANIFEST"

// Config keys.
const (
	KeyProjectsDir         = "projects_dir"
	KeyLargeLayerThreshold = "large_layer_threshold"
	KeyTopValuesLimit      = "top_values_limit"
	KeyMaxLayerJSONBytes   = "max_layer_json_bytes"
	KeyVocabularyFile      = "vocabulary_file"
	KeyVerbose             = "verbose"
	KeyQuiet               = "quiet"
	KeyFormat              = "format"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
	KeyLogOutput           = "log_output"
)

// Config holds the configuration loaded from config files, .env files and
// environment variables. Command-line flags are applied on top by the CLI.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	Format  string

	// Config file actually read, empty when none was found
	ConfigFile string

	// Pipeline configuration
	ProjectsDir         string
	LargeLayerThreshold int
	TopValuesLimit      int
	MaxLayerJSONBytes   int64
	VocabularyFile      string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// Load reads configuration in order of precedence:
// 1. Environment variables (GEOMANIFEST_*, plus LOG_LEVEL/LOG_FORMAT/LOG_OUTPUT)
// 2. .env and .env.local files
// 3. Config file (configFile, or .geomanifest.yaml in $HOME or .)
// 4. Defaults
func Load(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".geomanifest")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit file must exist; the search locations are optional
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, pkgerrors.NewConfigError("config", "reading config file", err)
		}
	}

	c := &Config{
		Verbose:    v.GetBool(KeyVerbose),
		Quiet:      v.GetBool(KeyQuiet),
		Format:     v.GetString(KeyFormat),
		ConfigFile: v.ConfigFileUsed(),

		ProjectsDir:         v.GetString(KeyProjectsDir),
		LargeLayerThreshold: v.GetInt(KeyLargeLayerThreshold),
		TopValuesLimit:      v.GetInt(KeyTopValuesLimit),
		MaxLayerJSONBytes:   v.GetInt64(KeyMaxLayerJSONBytes),
		VocabularyFile:      v.GetString(KeyVocabularyFile),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", v.GetString(KeyLogLevel)),
		LogFormat: getEnvOrDefault("LOG_FORMAT", v.GetString(KeyLogFormat)),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", v.GetString(KeyLogOutput)),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the numeric limits.
func (c *Config) Validate() error {
	if c.ProjectsDir == "" {
		return pkgerrors.NewValidationError(KeyProjectsDir, c.ProjectsDir, "cannot be empty")
	}
	if c.LargeLayerThreshold < 0 {
		return pkgerrors.NewValidationError(KeyLargeLayerThreshold, c.LargeLayerThreshold, "must not be negative")
	}
	if c.TopValuesLimit < 1 {
		return pkgerrors.NewValidationError(KeyTopValuesLimit, c.TopValuesLimit, "must be positive")
	}
	return nil
}

// UpdateFromFlags applies parsed command flags. Flag values take
// precedence over config files and the environment.
func (c *Config) UpdateFromFlags(verbose, quiet bool, projectsDir, format string) {
	c.Verbose = verbose
	c.Quiet = quiet
	if projectsDir != "" {
		c.ProjectsDir = projectsDir
	}
	if format != "" {
		c.Format = format
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyProjectsDir, constants.DefaultProjectsDir)
	v.SetDefault(KeyLargeLayerThreshold, constants.LargeLayerThreshold)
	v.SetDefault(KeyTopValuesLimit, constants.TopValuesLimit)
	v.SetDefault(KeyMaxLayerJSONBytes, constants.MaxLayerJSONBytes)
	v.SetDefault(KeyFormat, "json")
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFormat, "auto")
	v.SetDefault(KeyLogOutput, "stderr")
}

// loadEnvFiles loads .env files; .env.local values do not override .env
// values already set, matching godotenv.Load semantics.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
