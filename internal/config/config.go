package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"phenosurvey/domain/survey"
	"phenosurvey/internal/errors"
)

// Config represents the complete application configuration.
type Config struct {
	API      APIConfig
	Survey   SurveyConfig
	Export   ExportConfig
	Database DatabaseConfig
}

// APIConfig holds study data API settings.
type APIConfig struct {
	Host         string
	Study        string
	CachePath    string
	TimingPath   string
	PollInterval time.Duration
}

// SurveyConfig holds assessment run settings.
type SurveyConfig struct {
	Interactive bool
	WindowLines int
	Parallelism int
	LimitsFile  string
}

// ExportConfig holds result export destinations. Empty paths disable the
// corresponding export.
type ExportConfig struct {
	WorkbookPath string
	ReportPath   string
	HTMLPath     string
}

// DatabaseConfig holds the connection for the table sync tool; the survey
// itself never touches a database.
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	config := &Config{
		API: APIConfig{
			Host:         resolveHost(),
			Study:        os.Getenv("STUDY"),
			CachePath:    getEnvOrDefault("CACHE_PATH", "cache.sqlite3"),
			TimingPath:   getEnvOrDefault("TIMING_PATH", "requests_timing.txt"),
			PollInterval: getEnvDurationOrDefault("POLL_INTERVAL", 10*time.Second),
		},
		Survey: SurveyConfig{
			Interactive: getEnvBoolOrDefault("INTERACTIVE", true),
			WindowLines: getEnvIntOrDefault("WINDOW_LINES", 20),
			Parallelism: getEnvIntOrDefault("SURVEY_PARALLELISM", 1),
			LimitsFile:  os.Getenv("LIMITS_FILE"),
		},
		Export: ExportConfig{
			WorkbookPath: os.Getenv("EXPORT_WORKBOOK"),
			ReportPath:   os.Getenv("EXPORT_REPORT"),
			HTMLPath:     os.Getenv("EXPORT_HTML"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	if config.API.Host == "" {
		return nil, errors.ConfigInvalid("API_HOST is required (or provide api_host.txt)")
	}
	if config.API.Study == "" {
		return nil, errors.ConfigInvalid("STUDY is required")
	}
	if config.Survey.Parallelism < 1 {
		return nil, errors.ConfigInvalid("SURVEY_PARALLELISM must be at least 1")
	}
	return config, nil
}

// Limits resolves the calibration to use: the limits file when configured,
// the default otherwise.
func (c *Config) Limits() (survey.Limits, error) {
	if c.Survey.LimitsFile == "" {
		return survey.DefaultLimits, nil
	}
	return LimitsFromFile(c.Survey.LimitsFile)
}

// limitsFile is the TOML shape of a calibration override.
type limitsFile struct {
	EffectMin            float64 `toml:"effect_min"`
	PRequiredAtEffectMin float64 `toml:"p_required_at_effect_min"`
	PMax                 float64 `toml:"p_max"`
	EffectRequiredAtPMax float64 `toml:"effect_required_at_p_max"`
}

// LimitsFromFile loads a calibration from a TOML file.
func LimitsFromFile(path string) (survey.Limits, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return survey.Limits{}, errors.Wrapf(err, "failed to read limits file %s", path)
	}
	var spec limitsFile
	if err := toml.Unmarshal(contents, &spec); err != nil {
		return survey.Limits{}, errors.Wrapf(err, "failed to parse limits file %s", path)
	}
	limits, err := survey.NewLimits(
		spec.EffectMin,
		spec.PRequiredAtEffectMin,
		spec.PMax,
		spec.EffectRequiredAtPMax,
	)
	if err != nil {
		return survey.Limits{}, errors.Wrapf(err, "invalid calibration in %s", path)
	}
	return limits, nil
}

// resolveHost reads API_HOST, falling back to an api_host.txt file in the
// working directory.
func resolveHost() string {
	if host := os.Getenv("API_HOST"); host != "" {
		return host
	}
	contents, err := os.ReadFile("api_host.txt")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(contents))
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
