package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/engine"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/provider"
)

const (
	defaultAddr           = "127.0.0.1:8090"
	defaultRequestTimeout = 60 * time.Second
	defaultRetries        = 2
	defaultRetention      = 30 * 24 * time.Hour

	backendSQLite = "sqlite"
	backendRedis  = "redis"
)

type Config struct {
	DBPath         string
	Addr           string
	ServiceURL     string
	StoreBackend   string
	RedisAddr      string
	ArchiveDir     string
	Archive        engine.ArchiveConfig
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	Retries        int
	CORSOrigins    []string
}

// fileConfig is the YAML form. Empty fields keep the default.
type fileConfig struct {
	DBPath         string        `yaml:"db_path"`
	Addr           string        `yaml:"addr"`
	ServiceURL     string        `yaml:"service_url"`
	Store          string        `yaml:"store"`
	RedisAddr      string        `yaml:"redis_addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Retries        *int          `yaml:"retries"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	Log            struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Archive struct {
		Dir           string        `yaml:"dir"`
		Retention     time.Duration `yaml:"retention"`
		BatchSize     int           `yaml:"batch_size"`
		CheckInterval time.Duration `yaml:"check_interval"`
		Prune         bool          `yaml:"prune"`
	} `yaml:"archive"`
}

func defaultConfig(cwd string) Config {
	return Config{
		DBPath:         filepath.Join(cwd, "fxgraph.db"),
		Addr:           defaultAddr,
		ServiceURL:     provider.DefaultBaseURL,
		StoreBackend:   backendSQLite,
		LogLevel:       "info",
		LogFormat:      "json",
		RequestTimeout: defaultRequestTimeout,
		Retries:        defaultRetries,
		Archive: engine.ArchiveConfig{
			Retention: defaultRetention,
		},
	}
}

// LoadConfig resolves defaults, then the YAML file, then FXGRAPH_* env,
// then flags.
func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}
	config := defaultConfig(cwd)

	configPath := configPathFromArgs(args)
	if configPath == "" {
		configPath = os.Getenv("FXGRAPH_CONFIG")
	}
	if configPath != "" {
		if err := applyFile(&config, resolvePath(configPath, cwd)); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&config); err != nil {
		return Config{}, err
	}

	flagSet := flag.NewFlagSet("fxgraph-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.String("config", configPath, "path to YAML config")
	flagDB := flagSet.String("db", config.DBPath, "path to SQLite database")
	flagAddr := flagSet.String("addr", config.Addr, "HTTP listen address")
	flagService := flagSet.String("service-url", config.ServiceURL, "algorithm service base URL")
	flagStore := flagSet.String("store", config.StoreBackend, "snapshot store: sqlite|redis")
	flagRedis := flagSet.String("redis-addr", config.RedisAddr, "redis address when store=redis")
	flagArchiveDir := flagSet.String("archive-dir", config.ArchiveDir, "directory for archived snapshots (empty disables archiving)")
	flagRetention := flagSet.String("archive-retention", config.Archive.Retention.String(), "age after which snapshots are archived")
	flagPrune := flagSet.Bool("archive-prune", config.Archive.Prune, "delete snapshots from the store once archived")
	flagLogLevel := flagSet.String("log-level", config.LogLevel, "log level: debug|info|warn|error")
	flagLogFormat := flagSet.String("log-format", config.LogFormat, "log format: json|console")
	flagTimeout := flagSet.String("request-timeout", config.RequestTimeout.String(), "per-request timeout, upstream calls included")
	flagRetries := flagSet.Int("retries", config.Retries, "retries of failed algorithm service calls")
	flagCORS := flagSet.String("cors-origins", strings.Join(config.CORSOrigins, ","), "comma-separated allowed browser origins")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	timeout, err := time.ParseDuration(*flagTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("invalid request timeout: %w", err)
	}
	retention, err := time.ParseDuration(*flagRetention)
	if err != nil {
		return Config{}, fmt.Errorf("invalid archive retention: %w", err)
	}

	config.DBPath = resolvePath(*flagDB, cwd)
	config.Addr = strings.TrimSpace(*flagAddr)
	config.ServiceURL = strings.TrimSpace(*flagService)
	config.StoreBackend = strings.ToLower(strings.TrimSpace(*flagStore))
	config.RedisAddr = strings.TrimSpace(*flagRedis)
	config.ArchiveDir = resolvePath(*flagArchiveDir, cwd)
	config.Archive.Retention = retention
	config.Archive.Prune = *flagPrune
	config.LogLevel = *flagLogLevel
	config.LogFormat = *flagLogFormat
	config.RequestTimeout = timeout
	config.Retries = *flagRetries
	config.CORSOrigins = splitList(*flagCORS)

	if err := config.validate(); err != nil {
		return Config{}, err
	}
	config.Archive.Enabled = config.ArchiveDir != ""
	return config, nil
}

func (c Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr cannot be empty")
	}
	if c.ServiceURL == "" {
		return errors.New("service-url cannot be empty")
	}
	switch c.StoreBackend {
	case backendSQLite:
		if c.DBPath == "" {
			return errors.New("store=sqlite requires db")
		}
	case backendRedis:
		if c.RedisAddr == "" {
			return errors.New("store=redis requires redis-addr")
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", c.StoreBackend)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.Retries < 0 {
		return errors.New("retries cannot be negative")
	}
	if c.ArchiveDir != "" && c.Archive.Retention <= 0 {
		return errors.New("archive retention must be positive")
	}
	return nil
}

func applyFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	setString(&c.DBPath, fc.DBPath)
	setString(&c.Addr, fc.Addr)
	setString(&c.ServiceURL, fc.ServiceURL)
	setString(&c.StoreBackend, fc.Store)
	setString(&c.RedisAddr, fc.RedisAddr)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	setString(&c.ArchiveDir, fc.Archive.Dir)
	if fc.RequestTimeout != 0 {
		c.RequestTimeout = fc.RequestTimeout
	}
	if fc.Retries != nil {
		c.Retries = *fc.Retries
	}
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}
	if fc.Archive.Retention != 0 {
		c.Archive.Retention = fc.Archive.Retention
	}
	c.Archive.BatchSize = fc.Archive.BatchSize
	c.Archive.CheckInterval = fc.Archive.CheckInterval
	c.Archive.Prune = fc.Archive.Prune
	return nil
}

func applyEnv(c *Config) error {
	c.DBPath = envOrDefault("FXGRAPH_DB_PATH", c.DBPath)
	c.Addr = addrFromEnv(c.Addr)
	c.ServiceURL = envOrDefault("FXGRAPH_SERVICE_URL", c.ServiceURL)
	c.StoreBackend = envOrDefault("FXGRAPH_STORE", c.StoreBackend)
	c.RedisAddr = envOrDefault("FXGRAPH_REDIS_ADDR", c.RedisAddr)
	c.ArchiveDir = envOrDefault("FXGRAPH_ARCHIVE_DIR", c.ArchiveDir)
	c.LogLevel = envOrDefault("FXGRAPH_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOrDefault("FXGRAPH_LOG_FORMAT", c.LogFormat)

	if v := os.Getenv("FXGRAPH_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FXGRAPH_REQUEST_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return errors.New("FXGRAPH_REQUEST_TIMEOUT must be positive")
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("FXGRAPH_ARCHIVE_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FXGRAPH_ARCHIVE_RETENTION: %w", err)
		}
		c.Archive.Retention = d
	}
	if v := os.Getenv("FXGRAPH_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FXGRAPH_RETRIES: %w", err)
		}
		c.Retries = n
	}
	if v := os.Getenv("FXGRAPH_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	return nil
}

// configPathFromArgs finds -config before the full flag parse, which
// needs the file's values as defaults.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("FXGRAPH_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("FXGRAPH_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
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

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}
