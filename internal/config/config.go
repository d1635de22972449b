package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const defaultBaseURL = "https://www.metoffice.gov.uk/pub/data/weather/uk/climate/datasets"

// Config holds all service settings, populated from environment variables.
type Config struct {
	BaseURL            string
	FetchTimeout       time.Duration
	UserAgent          string
	BreakerMaxFailures int

	DBPath    string
	BatchSize int

	Workers          int
	Regions          []string
	Parameters       []string
	RegionAliases    map[string]string
	ScheduleInterval time.Duration

	KafkaBrokers     []string
	KafkaReportTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "20s", false)
	if err != nil {
		return nil, err
	}

	schedule, err := parseDuration("SCHEDULE_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}

	workers, err := parseIntRange("WORKERS", 4, 1, 32)
	if err != nil {
		return nil, err
	}

	breakerMax, err := parseIntRange("BREAKER_MAX_FAILURES", 0, 0, 1000)
	if err != nil {
		return nil, err
	}

	aliases, err := parseAliases(os.Getenv("REGION_ALIASES"))
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		BaseURL:            strings.TrimRight(sharedcfg.EnvOrDefault("BASE_URL", defaultBaseURL), "/"),
		FetchTimeout:       fetchTimeout,
		UserAgent:          sharedcfg.EnvOrDefault("USER_AGENT", "met-climate-etl/1.0"),
		BreakerMaxFailures: breakerMax,
		DBPath:             sharedcfg.EnvOrDefault("DB_PATH", "climate.db"),
		BatchSize:          batchSize,
		Workers:            workers,
		Regions:            parseList(os.Getenv("REGIONS")),
		Parameters:         parseList(os.Getenv("PARAMETERS")),
		RegionAliases:      aliases,
		ScheduleInterval:   schedule,
		KafkaBrokers:       brokers,
		KafkaReportTopic:   os.Getenv("KAFKA_REPORT_TOPIC"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
	}

	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("BASE_URL must be an absolute URL")
	}
	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.KafkaReportTopic != "" && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_REPORT_TOPIC is set but KAFKA_BROKERS is not")
	}

	return cfg, nil
}

// ReportsEnabled reports whether combination reports are published to Kafka.
func (c *Config) ReportsEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaReportTopic != ""
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseAliases reads "alias=canonical" pairs. An empty value keeps the
// built-in alias table, "none" disables aliases.
func parseAliases(s string) (map[string]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	out := map[string]string{}
	if strings.EqualFold(s, "none") {
		return out, nil
	}
	for _, pair := range parseList(s) {
		alias, canonical, ok := strings.Cut(pair, "=")
		alias, canonical = strings.TrimSpace(alias), strings.TrimSpace(canonical)
		if !ok || alias == "" || canonical == "" {
			return nil, fmt.Errorf("invalid REGION_ALIASES entry %q", pair)
		}
		out[alias] = canonical
	}
	return out, nil
}
