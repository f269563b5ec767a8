package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del pipeline de análisis de notas.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/casenotes.db"`

	LLMProvider string `env:"LLM_PROVIDER" envDefault:"none"`
	LLMAPIKey   string `env:"LLM_API_KEY"`
	LLMBaseURL  string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel    string `env:"LLM_MODEL" envDefault:"gpt-4.1-mini"`

	// Toggles para forzar los tiers superiores fuera (entornos restringidos).
	EnableNeuralSentiment        bool `env:"ENABLE_NEURAL_SENTIMENT" envDefault:"true"`
	EnableNeuralDomainClassifier bool `env:"ENABLE_NEURAL_DOMAIN_CLASSIFIER" envDefault:"true"`
	EnableLexicalSentiment       bool `env:"ENABLE_LEXICAL_SENTIMENT" envDefault:"true"`
	EnableLinguisticKeywords     bool `env:"ENABLE_LINGUISTIC_KEYWORDS" envDefault:"true"`

	TierTimeout              time.Duration `env:"TIER_TIMEOUT" envDefault:"15s"`
	SentimentTokenLimit      int           `env:"SENTIMENT_TOKEN_LIMIT" envDefault:"512"`
	SentimentConfidenceFloor float64       `env:"SENTIMENT_CONFIDENCE_FLOOR" envDefault:"0"`
	DomainHighThreshold      float64       `env:"DOMAIN_HIGH_THRESHOLD" envDefault:"0.4"`
	DomainMediumThreshold    float64       `env:"DOMAIN_MEDIUM_THRESHOLD" envDefault:"0.2"`
	LexiconPath              string        `env:"LEXICON_PATH"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	MetricsCacheTTL time.Duration `env:"METRICS_CACHE_TTL" envDefault:"5m"`

	AnalysisWorkers int    `env:"ANALYSIS_WORKERS" envDefault:"4"`
	MetricsAddr     string `env:"METRICS_ADDR"`
	LogDevelopment  bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.AnalysisWorkers <= 0 {
		cfg.AnalysisWorkers = 1
	}
	if cfg.SentimentTokenLimit <= 0 {
		cfg.SentimentTokenLimit = 512
	}
	return &cfg, nil
}
