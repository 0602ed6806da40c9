package voyage

import (
	"errors"
	"strings"
	"time"

	"github.com/yungbote/movierec-backend/internal/platform/envutil"
)

const DefaultBaseURL = "https://api.voyageai.com/v1"

type Config struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	EmbedModel  string        `yaml:"embed_model"`
	RerankModel string        `yaml:"rerank_model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		EmbedModel:  "voyage-3-large",
		RerankModel: "rerank-2",
		Timeout:     10 * time.Second,
		MaxRetries:  2,
	}
}

func ApplyEnv(cfg Config) Config {
	cfg.APIKey = envutil.String("VOYAGE_API_KEY", cfg.APIKey)
	cfg.BaseURL = envutil.String("VOYAGE_BASE_URL", cfg.BaseURL)
	cfg.EmbedModel = envutil.String("VOYAGE_EMBED_MODEL", cfg.EmbedModel)
	cfg.RerankModel = envutil.String("VOYAGE_RERANK_MODEL", cfg.RerankModel)
	cfg.Timeout = envutil.Seconds("VOYAGE_TIMEOUT_SECONDS", cfg.Timeout)
	cfg.MaxRetries = envutil.Int("VOYAGE_MAX_RETRIES", cfg.MaxRetries)
	return cfg
}

func ValidateConfig(cfg Config) error {
	var errs []error
	if strings.TrimSpace(cfg.APIKey) == "" {
		errs = append(errs, errors.New("VOYAGE_API_KEY is required"))
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		errs = append(errs, errors.New("VOYAGE_BASE_URL is required"))
	}
	if strings.TrimSpace(cfg.EmbedModel) == "" || strings.TrimSpace(cfg.RerankModel) == "" {
		errs = append(errs, errors.New("voyage embed and rerank models are required"))
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, errors.New("VOYAGE_TIMEOUT_SECONDS must be positive"))
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, errors.New("VOYAGE_MAX_RETRIES must be >= 0"))
	}
	return errors.Join(errs...)
}
