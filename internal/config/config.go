package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/language"
)

const (
	// DebugModeEnv is the environment variable for debug mode.
	DebugModeEnv = "DEBUG_MODE"

	// StoreURLEnv is the environment variable for the store endpoint (a postgres:// URL).
	StoreURLEnv = "STORE_URL"

	// StoreKeyEnv is the environment variable for the store access key (database password).
	StoreKeyEnv = "STORE_KEY"

	// HTTPServerPortEnv is the environment variable for HTTP server port.
	HTTPServerPortEnv = "HTTP_SERVER_PORT"

	// MetricsServerPortEnv is the environment variable for metrics server port.
	MetricsServerPortEnv = "METRICS_SERVER_PORT"

	// NotifySourceEnv selects where change notifications come from.
	NotifySourceEnv = "NOTIFY_SOURCE"

	// LocalhostEnv is the constant for localhost.
	LocalhostEnv = "localhost"

	// EnvFilePath is the environment variable for .env file path (only for local/test environment).
	EnvFilePath = "ENV_PATH"

	// DefaultEnvFilePath is the default path to the .env file.
	DefaultEnvFilePath = ".env"

	// AWSRegionEnv is the environment variable for AWS region.
	AWSRegionEnv = "AWS_REGION"

	// AWSEndpointEnv is the environment variable for AWS endpoint.
	AWSEndpointEnv = "AWS_ENDPOINT"

	// SQSQueueURLEnv is the environment variable for SQS queue URL.
	SQSQueueURLEnv = "SQS_QUEUE_URL"

	// RedisAddrEnv is the environment variable for the preferences Redis address.
	RedisAddrEnv = "REDIS_ADDR"

	// RedisPasswordEnv is the environment variable for the Redis password.
	RedisPasswordEnv = "REDIS_PASSWORD"

	// RedisDBEnv is the environment variable for the Redis database index.
	RedisDBEnv = "REDIS_DB"

	// ListEnvPrefix prefixes every list engine setting.
	ListEnvPrefix = "LIST"
)

// NotifySource names a change notification backend.
type NotifySource string

const (
	NotifyPostgres NotifySource = "postgres"
	NotifySQS      NotifySource = "sqs"
	NotifyNone     NotifySource = "none"
)

var (
	// ErrMissingConfig is returned when required configuration values are missing.
	ErrMissingConfig = errors.New("missing config data")
	// ErrInvalidConfig is returned when a configuration value is malformed.
	ErrInvalidConfig = errors.New("invalid config data")
)

// Config represents the application configuration.
type Config struct {
	DebugMode     bool
	Store         Store
	HTTPServer    Server
	MetricsServer Server
	Notify        NotifySource
	AWS           AWSConfig
	Redis         Redis
	List          List
}

// Store holds the credentials of the remote product table.
// Either value missing means the service runs without a store.
type Store struct {
	URL string
	Key string
}

// Enabled reports whether both credentials are present.
func (s Store) Enabled() bool {
	return s.URL != "" && s.Key != ""
}

// DSN returns the connection URL with the access key set as password.
func (s Store) DSN() (string, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidConfig, StoreURLEnv, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %s must look like postgres://user@host:port/db", ErrInvalidConfig, StoreURLEnv)
	}
	username := ""
	if u.User != nil {
		username = u.User.Username()
	}
	u.User = url.UserPassword(username, s.Key)
	return u.String(), nil
}

// AWSConfig represents AWS-specific configuration settings.
type AWSConfig struct {
	Region      string
	Endpoint    string
	SQSQueueURL string
}

// Enabled reports whether a queue is configured.
func (a AWSConfig) Enabled() bool {
	return a.SQSQueueURL != ""
}

// Redis represents the preferences backend settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address is configured.
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// Server represents server configuration settings.
type Server struct {
	Port string
}

// List holds the list engine settings read from LIST_* variables.
type List struct {
	DefaultCategory   string        `envconfig:"DEFAULT_CATEGORY" default:"Geral"`
	DefaultCategories []string      `envconfig:"DEFAULT_CATEGORIES" default:"Geral,Hortifruti,Limpeza,Higiene,Carnes,Bebidas"`
	DefaultMargin     float64       `envconfig:"DEFAULT_MARGIN" default:"15"`
	Locale            string        `envconfig:"LOCALE" default:"pt-BR"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	ResetSchedule     string        `envconfig:"RESET_SCHEDULE"`
	RefreshSchedule   string        `envconfig:"REFRESH_SCHEDULE"`
}

// Language returns the collation language of the list.
func (l List) Language() (language.Tag, error) {
	tag, err := language.Parse(l.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %s_LOCALE: %v", ErrInvalidConfig, ListEnvPrefix, err)
	}
	return tag, nil
}

func allNonEmpty(keyValues map[string]string) error {
	for key, value := range keyValues {
		if value == "" {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("error", "value is empty"))
			return fmt.Errorf("%w for key: %s", ErrMissingConfig, key)
		}
	}
	return nil
}

func allNumbers(keyValues map[string]string) error {
	for key, value := range keyValues {
		_, err := strconv.Atoi(value)
		if err != nil {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("value", value), slog.String("error", err.Error()))
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	// Validate server ports
	if err := allNonEmpty(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("server port configuration incomplete: %w", err)
	}

	if err := allNumbers(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}

	if c.Store.Enabled() {
		if _, err := c.Store.DSN(); err != nil {
			return err
		}
	}

	switch c.Notify {
	case NotifyPostgres, NotifyNone:
	case NotifySQS:
		if err := allNonEmpty(map[string]string{
			SQSQueueURLEnv: c.AWS.SQSQueueURL,
		}); err != nil {
			return fmt.Errorf("AWS configuration incomplete: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, NotifySourceEnv, c.Notify)
	}

	if c.List.DefaultCategory == "" {
		return fmt.Errorf("%w for key: %s_DEFAULT_CATEGORY", ErrMissingConfig, ListEnvPrefix)
	}
	if c.List.DefaultMargin < 0 {
		return fmt.Errorf("%w: %s_DEFAULT_MARGIN must not be negative", ErrInvalidConfig, ListEnvPrefix)
	}
	if c.List.WriteTimeout <= 0 {
		return fmt.Errorf("%w: %s_WRITE_TIMEOUT must be positive", ErrInvalidConfig, ListEnvPrefix)
	}
	if _, err := c.List.Language(); err != nil {
		return err
	}

	return nil
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return defaultValue, nil
	}
	if err := allNumbers(map[string]string{name: raw}); err != nil {
		return 0, err
	}
	val, _ := strconv.Atoi(raw)
	return val, nil
}

func getEnv(name, defaultValue string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return defaultValue
}

// ApplyEnvFile loads environment variables from the specified .env files.
func ApplyEnvFile(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables and validates it.
func LoadFromEnv() (*Config, error) {
	envPath := os.Getenv(EnvFilePath)
	if envPath == "" {
		envPath = DefaultEnvFilePath
	}
	err := ApplyEnvFile(envPath)
	if err != nil {
		// just log the error, maybe all envs are set in another way
		slog.Info("failed to load from .env", slog.Any("err", err))
	}

	redisDB, err := getEnvAsInt(RedisDBEnv, 0)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	conf := &Config{
		DebugMode: getEnvAsBool(DebugModeEnv, false),
		Store: Store{
			URL: os.Getenv(StoreURLEnv),
			Key: os.Getenv(StoreKeyEnv),
		},
		HTTPServer: Server{
			Port: os.Getenv(HTTPServerPortEnv),
		},
		MetricsServer: Server{
			Port: os.Getenv(MetricsServerPortEnv),
		},
		Notify: NotifySource(getEnv(NotifySourceEnv, string(NotifyPostgres))),
		AWS: AWSConfig{
			Region:      os.Getenv(AWSRegionEnv),
			Endpoint:    os.Getenv(AWSEndpointEnv),
			SQSQueueURL: os.Getenv(SQSQueueURLEnv),
		},
		Redis: Redis{
			Addr:     os.Getenv(RedisAddrEnv),
			Password: os.Getenv(RedisPasswordEnv),
			DB:       redisDB,
		},
	}

	if err := envconfig.Process(ListEnvPrefix, &conf.List); err != nil {
		return nil, fmt.Errorf("failed to read list settings: %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}
