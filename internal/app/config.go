package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	redisclient "github.com/yungbote/movierec-backend/internal/clients/redis"
	"github.com/yungbote/movierec-backend/internal/data/db"
	apphttp "github.com/yungbote/movierec-backend/internal/http"
	"github.com/yungbote/movierec-backend/internal/platform/envutil"
	"github.com/yungbote/movierec-backend/internal/platform/qdrant"
	"github.com/yungbote/movierec-backend/internal/platform/voyage"
	"github.com/yungbote/movierec-backend/internal/services"
	"github.com/yungbote/movierec-backend/internal/services/simcache"
)

const ConfigPathEnv = "MOVIEREC_CONFIG_PATH"

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type Config struct {
	LogMode             string                   `yaml:"log_mode"`
	Service             ServiceConfig            `yaml:"service"`
	Secret              string                   `yaml:"secret"`
	ProductionClientURL string                   `yaml:"production_client_url"`
	Listen              apphttp.ListenConfig     `yaml:"listen"`
	Postgres            db.PostgresConfig        `yaml:"postgres"`
	Redis               redisclient.Config       `yaml:"redis"`
	Voyage              voyage.Config            `yaml:"voyage"`
	Qdrant              qdrant.Config            `yaml:"qdrant"`
	Retrieval           services.RetrievalConfig `yaml:"retrieval"`
	Cache               simcache.Config          `yaml:"cache"`
	Viewing             services.ViewingConfig   `yaml:"viewing"`
}

type ConfigErrorCode string

const (
	ConfigErrorUnreadableFile   ConfigErrorCode = "unreadable_file"
	ConfigErrorInvalidYAML      ConfigErrorCode = "invalid_yaml"
	ConfigErrorMissingSecret    ConfigErrorCode = "missing_secret"
	ConfigErrorInvalidListen    ConfigErrorCode = "invalid_listen"
	ConfigErrorInvalidRetrieval ConfigErrorCode = "invalid_retrieval"
	ConfigErrorInvalidCache     ConfigErrorCode = "invalid_cache"
	ConfigErrorInvalidViewing   ConfigErrorCode = "invalid_viewing"
	ConfigErrorInvalidVoyage    ConfigErrorCode = "invalid_voyage"
	ConfigErrorInvalidQdrant    ConfigErrorCode = "invalid_qdrant"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid config"
	}
	var msg string
	switch e.Code {
	case ConfigErrorUnreadableFile:
		msg = fmt.Sprintf("cannot read config file %q", e.Value)
	case ConfigErrorInvalidYAML:
		msg = fmt.Sprintf("invalid YAML in %q", e.Value)
	case ConfigErrorMissingSecret:
		return "SECRET not set in environment variables"
	case ConfigErrorInvalidListen:
		msg = "invalid listen config"
	case ConfigErrorInvalidRetrieval:
		msg = "invalid retrieval config"
	case ConfigErrorInvalidCache:
		msg = "invalid similarity cache config"
	case ConfigErrorInvalidViewing:
		msg = "invalid viewing config"
	case ConfigErrorInvalidVoyage:
		msg = "invalid voyage config"
	case ConfigErrorInvalidQdrant:
		msg = "invalid qdrant config"
	default:
		msg = "invalid config"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func DefaultConfig() Config {
	return Config{
		LogMode:             "development",
		Service:             ServiceConfig{Name: "movierec-api", Environment: "development"},
		ProductionClientURL: "https://mongodb-developer.github.io",
		Listen: apphttp.ListenConfig{
			LocalDev:        true,
			DevIP:           "127.0.0.1",
			DevPort:         3000,
			ProductionIP:    "0.0.0.0",
			ProductionPort:  443,
			TLSCertFile:     "/home/ec2-user/certs/fullchain.pem",
			TLSKeyFile:      "/home/ec2-user/certs/privkey.pem",
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres:  db.DefaultPostgresConfig(),
		Voyage:    voyage.DefaultConfig(),
		Qdrant:    qdrant.DefaultConfig(),
		Retrieval: services.DefaultRetrievalConfig(),
		Cache:     simcache.DefaultConfig(),
		Viewing:   services.DefaultViewingConfig(),
	}
}

// LoadConfig layers defaults, the optional YAML file named by
// MOVIEREC_CONFIG_PATH, then environment variables, and validates the result.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if path := envutil.String(ConfigPathEnv, ""); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Code: ConfigErrorUnreadableFile, Value: path, Cause: err}
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return &ConfigError{Code: ConfigErrorInvalidYAML, Value: path, Cause: err}
	}
	return nil
}

func applyEnv(cfg Config) Config {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Service.Name = envutil.String("OTEL_SERVICE_NAME", cfg.Service.Name)
	cfg.Service.Environment = envutil.String("APP_ENV", cfg.Service.Environment)
	cfg.Service.Version = envutil.String("APP_VERSION", cfg.Service.Version)
	cfg.Secret = envutil.String("SECRET", cfg.Secret)
	cfg.ProductionClientURL = envutil.String("PRODUCTION_CLIENT_URL", cfg.ProductionClientURL)

	cfg.Listen.LocalDev = envutil.Bool("LOCAL_DEV", cfg.Listen.LocalDev)
	cfg.Listen.DevIP = envutil.String("DEV_IP", cfg.Listen.DevIP)
	cfg.Listen.DevPort = envutil.Int("DEV_PORT", cfg.Listen.DevPort)
	cfg.Listen.ProductionIP = envutil.String("PRODUCTION_IP", cfg.Listen.ProductionIP)
	cfg.Listen.ProductionPort = envutil.Int("PRODUCTION_PORT", cfg.Listen.ProductionPort)
	cfg.Listen.TLSCertFile = envutil.String("TLS_CERT_FILE", cfg.Listen.TLSCertFile)
	cfg.Listen.TLSKeyFile = envutil.String("TLS_KEY_FILE", cfg.Listen.TLSKeyFile)

	cfg.Postgres = db.ApplyPostgresEnv(cfg.Postgres)
	cfg.Voyage = voyage.ApplyEnv(cfg.Voyage)
	cfg.Qdrant = qdrant.ApplyEnv(cfg.Qdrant)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)

	cfg.Retrieval.TopK = envutil.Int("VECTOR_TOP_K", cfg.Retrieval.TopK)
	cfg.Retrieval.NumCandidates = envutil.Int("VECTOR_NUM_CANDIDATES", cfg.Retrieval.NumCandidates)
	cfg.Retrieval.Threshold = envutil.Float("SIMILARITY_THRESHOLD", cfg.Retrieval.Threshold)

	cfg.Cache.Mode = simcache.Mode(envutil.String("SIMILARITY_CACHE_MODE", string(cfg.Cache.Mode)))
	cfg.Cache.Backend = simcache.Backend(envutil.String("SIMILARITY_CACHE_BACKEND", string(cfg.Cache.Backend)))
	cfg.Cache.ExhaustedPolicy = simcache.ExhaustedPolicy(envutil.String("SIMILARITY_CACHE_EXHAUSTED_POLICY", string(cfg.Cache.ExhaustedPolicy)))
	cfg.Cache.Prefix = envutil.String("SIMILARITY_CACHE_PREFIX", cfg.Cache.Prefix)
	if days := envutil.Float("SIMILARITY_CACHE_TTL_DAYS", -1); days >= 0 {
		cfg.Cache.TTL = time.Duration(days * float64(24*time.Hour))
	}

	cfg.Viewing.UpsertCustomers = envutil.Bool("UPSERT_CUSTOMERS", cfg.Viewing.UpsertCustomers)
	cfg.Viewing.HistoryLimit = envutil.Int("HISTORY_LIMIT", cfg.Viewing.HistoryLimit)
	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Secret) == "" {
		return &ConfigError{Code: ConfigErrorMissingSecret}
	}
	if err := validateListen(c.Listen); err != nil {
		return &ConfigError{Code: ConfigErrorInvalidListen, Cause: err}
	}
	if err := validateRetrieval(c.Retrieval); err != nil {
		return &ConfigError{Code: ConfigErrorInvalidRetrieval, Cause: err}
	}
	if err := c.Cache.Validate(); err != nil {
		return &ConfigError{Code: ConfigErrorInvalidCache, Cause: err}
	}
	if c.Cache.Enabled() && c.Cache.Backend == simcache.BackendRedis && strings.TrimSpace(c.Redis.Addr) == "" {
		return &ConfigError{Code: ConfigErrorInvalidCache, Cause: errors.New("redis backend requires REDIS_ADDR")}
	}
	if c.Viewing.HistoryLimit <= 0 {
		return &ConfigError{Code: ConfigErrorInvalidViewing, Value: fmt.Sprint(c.Viewing.HistoryLimit), Cause: errors.New("HISTORY_LIMIT must be positive")}
	}
	if err := voyage.ValidateConfig(c.Voyage); err != nil {
		return &ConfigError{Code: ConfigErrorInvalidVoyage, Cause: err}
	}
	if err := qdrant.ValidateConfig(c.Qdrant); err != nil {
		return &ConfigError{Code: ConfigErrorInvalidQdrant, Cause: err}
	}
	return nil
}

func validateListen(l apphttp.ListenConfig) error {
	if l.LocalDev {
		if l.DevPort <= 0 || l.DevPort > 65535 {
			return fmt.Errorf("DEV_PORT=%d out of range", l.DevPort)
		}
		return nil
	}
	if l.ProductionPort <= 0 || l.ProductionPort > 65535 {
		return fmt.Errorf("PRODUCTION_PORT=%d out of range", l.ProductionPort)
	}
	if strings.TrimSpace(l.TLSCertFile) == "" || strings.TrimSpace(l.TLSKeyFile) == "" {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE are required outside local dev")
	}
	return nil
}

func validateRetrieval(r services.RetrievalConfig) error {
	if r.TopK <= 0 {
		return fmt.Errorf("VECTOR_TOP_K=%d must be positive", r.TopK)
	}
	if r.NumCandidates < r.TopK {
		return fmt.Errorf("VECTOR_NUM_CANDIDATES=%d must be >= VECTOR_TOP_K=%d", r.NumCandidates, r.TopK)
	}
	if r.Threshold < 0 || r.Threshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD=%v must be within [0,1]", r.Threshold)
	}
	return nil
}
