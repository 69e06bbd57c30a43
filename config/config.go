// Package config loads the client configuration from YAML and prepares
// the pieces built from it: the logger, the field-path resolver, and the
// executor stack (HTTP driver, optionally fronted by the Redis cache).
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/manojoshi/plainelastic/cache"
	"github.com/manojoshi/plainelastic/driver"
	q "github.com/manojoshi/plainelastic/query"
)

type LoggingConfig struct {
	Level string `yaml:"level"` // none, normal, debug
}

type RedisConfig struct {
	Addr string        `yaml:"addr,omitempty"`
	TTL  time.Duration `yaml:"ttl,omitempty"`
}

type Config struct {
	URL         string        `yaml:"url"`
	Index       string        `yaml:"index"`
	Username    string        `yaml:"username,omitempty"`
	Password    string        `yaml:"password,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
	FieldNaming string        `yaml:"field_naming"` // camel, snake, as_is
	Redis       RedisConfig   `yaml:"redis"`
	Logging     LoggingConfig `yaml:"logging"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		URL:         "http://localhost:9200",
		Timeout:     10 * time.Second,
		FieldNaming: "camel",
		Redis:       RedisConfig{TTL: time.Minute},
		Logging:     LoggingConfig{Level: "normal"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("config: url is required"))
	}
	if _, err := c.naming(); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Level {
	case "", "none", "normal", "debug":
	default:
		errs = append(errs, fmt.Errorf("config: unknown logging level %q", c.Logging.Level))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("config: timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) naming() (q.Naming, error) {
	switch c.FieldNaming {
	case "", "camel":
		return q.CamelCase, nil
	case "snake":
		return q.SnakeCase, nil
	case "as_is":
		return q.AsIs, nil
	}
	return 0, fmt.Errorf("config: unknown field_naming %q", c.FieldNaming)
}

// Resolver builds the field-path resolver for the configured naming.
func (c *Config) Resolver() *q.Resolver {
	n, _ := c.naming()
	return q.NewResolver(q.WithNaming(n))
}

// Apply installs the configured resolver library-wide. Call it once at
// start-up.
func (c *Config) Apply() { q.SetDefaultResolver(c.Resolver()) }

// Prepare returns the configured zap logger: nothing for "none", info and
// up for "normal", everything for "debug".
func (c *LoggingConfig) Prepare() (*zap.Logger, error) {
	var lvl zapcore.Level
	switch c.Level {
	case "none":
		return zap.NewNop(), nil
	case "debug":
		lvl = zapcore.DebugLevel
	case "normal", "":
		lvl = zapcore.InfoLevel
	default:
		return nil, fmt.Errorf("config: unknown logging level %q", c.Level)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = true
	zc.DisableCaller = true
	return zc.Build()
}

// Executor assembles the driver stack and returns a close function for
// the resources it opened.
func (c *Config) Executor(log *zap.Logger) (driver.Executor, func() error, error) {
	opts := []driver.Opt{driver.WithLogger(log), driver.WithTimeout(c.Timeout)}
	if c.Username != "" {
		opts = append(opts, driver.WithBasicAuth(c.Username, c.Password))
	}
	conn := driver.NewHTTPConn(c.URL, opts...)
	if c.Redis.Addr == "" {
		return conn, conn.Close, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: c.Redis.Addr})
	exec := cache.New(conn, rdb, cache.WithTTL(c.Redis.TTL), cache.WithLogger(log))
	closeAll := func() error { return errors.Join(rdb.Close(), conn.Close()) }
	return exec, closeAll, nil
}
