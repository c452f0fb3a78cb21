package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Output formats accepted by OUTPUT_FORMAT.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatBoth = "both"
)

// Archive sources accepted by SOURCE.
const (
	SourceGIOS  = "gios"
	SourceLocal = "local"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	Years        []int
	Threshold    float64
	ReportCities []string
	ReportYears  []int

	// reportYearsSet records an explicit REPORT_YEARS.
	reportYearsSet bool

	OutputDir    string
	OutputFormat string

	Source       string
	LocalDataDir string

	// GIOŚ archive retrieval.
	GIOSBaseURL   string
	GIOSTimeout   time.Duration
	GIOSCacheSize int
	GIOSRateLimit float64 // requests per second
	FetchRetries  int

	SkipFailedYears bool
	MetricsAddr     string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional sinks; an empty address disables the sink.
	KafkaBrokers   []string
	KafkaSinkTopic string
	InfluxURL      string
	InfluxToken    string
	InfluxOrg      string
	InfluxBucket   string
}

// WriteCSV reports whether CSV files are produced.
func (c *Config) WriteCSV() bool { return c.OutputFormat != FormatXLSX }

// WriteXLSX reports whether workbooks are produced.
func (c *Config) WriteXLSX() bool { return c.OutputFormat != FormatCSV }

// KafkaEnabled reports whether aggregates are published to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// InfluxEnabled reports whether daily means are written to InfluxDB.
func (c *Config) InfluxEnabled() bool { return c.InfluxURL != "" }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	years, err := ParseYears(sharedcfg.EnvOrDefault("PM25_YEARS", "2015,2018,2021,2024"))
	if err != nil {
		return nil, fmt.Errorf("invalid PM25_YEARS: %w", err)
	}
	if len(years) == 0 {
		return nil, errors.New("PM25_YEARS is required")
	}

	reportYears := years
	reportYearsSet := false
	if v := os.Getenv("REPORT_YEARS"); v != "" {
		reportYearsSet = true
		reportYears, err = ParseYears(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REPORT_YEARS: %w", err)
		}
	}

	threshold, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("PM25_THRESHOLD", "15"), 64)
	if err != nil || threshold <= 0 {
		return nil, errors.New("invalid PM25_THRESHOLD")
	}

	giosTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("GIOS_TIMEOUT", "60s"))
	if err != nil || giosTimeout <= 0 {
		return nil, errors.New("invalid GIOS_TIMEOUT")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GIOS_RATE_LIMIT", "2"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid GIOS_RATE_LIMIT")
	}

	retries, err := strconv.Atoi(sharedcfg.EnvOrDefault("FETCH_RETRIES", "2"))
	if err != nil || retries < 0 {
		return nil, errors.New("invalid FETCH_RETRIES")
	}

	skipFailed, err := strconv.ParseBool(sharedcfg.EnvOrDefault("RUN_SKIP_FAILED_YEARS", "false"))
	if err != nil {
		return nil, errors.New("invalid RUN_SKIP_FAILED_YEARS")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		Years:           years,
		Threshold:       threshold,
		ReportCities:    splitList(sharedcfg.EnvOrDefault("REPORT_CITIES", "Warszawa,Katowice")),
		ReportYears:     reportYears,
		reportYearsSet:  reportYearsSet,
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "results/pm25"),
		OutputFormat:    sharedcfg.EnvOrDefault("OUTPUT_FORMAT", FormatCSV),
		Source:          sharedcfg.EnvOrDefault("SOURCE", SourceGIOS),
		LocalDataDir:    sharedcfg.EnvOrDefault("LOCAL_DATA_DIR", "data"),
		GIOSBaseURL:     strings.TrimRight(sharedcfg.EnvOrDefault("GIOS_BASE_URL", "https://powietrze.gios.gov.pl"), "/"),
		GIOSTimeout:     giosTimeout,
		GIOSCacheSize:   parseCacheSize(),
		GIOSRateLimit:   rateLimit,
		FetchRetries:    retries,
		SkipFailedYears: skipFailed,
		MetricsAddr:     sharedcfg.EnvOrDefault("METRICS_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    brokers,
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "pm25-aggregates"),
		InfluxURL:       os.Getenv("INFLUXDB_URL"),
		InfluxToken:     os.Getenv("INFLUXDB_TOKEN"),
		InfluxOrg:       sharedcfg.EnvOrDefault("INFLUXDB_ORG", "air-quality"),
		InfluxBucket:    sharedcfg.EnvOrDefault("INFLUXDB_BUCKET", "pm25"),
	}

	switch cfg.OutputFormat {
	case FormatCSV, FormatXLSX, FormatBoth:
	default:
		return nil, fmt.Errorf("invalid OUTPUT_FORMAT %q", cfg.OutputFormat)
	}
	switch cfg.Source {
	case SourceGIOS, SourceLocal:
	default:
		return nil, fmt.Errorf("invalid SOURCE %q", cfg.Source)
	}
	if len(cfg.ReportCities) == 0 {
		return nil, errors.New("REPORT_CITIES is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.InfluxEnabled() && cfg.InfluxToken == "" {
		return nil, errors.New("INFLUXDB_URL is set but INFLUXDB_TOKEN is not")
	}

	return cfg, nil
}

// SetYears replaces the processed years. Report years follow them unless
// REPORT_YEARS was set explicitly.
func (c *Config) SetYears(years []int) {
	c.Years = years
	if !c.reportYearsSet {
		c.ReportYears = years
	}
}

// ParseYears parses a comma-separated list of years, e.g. "2015, 2018".
func ParseYears(s string) ([]int, error) {
	var years []int
	for _, part := range splitList(s) {
		y, err := strconv.Atoi(part)
		if err != nil || y < 1900 || y > 9999 {
			return nil, fmt.Errorf("bad year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseCacheSize() int {
	if s := os.Getenv("GIOS_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 16
}
