package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"casenote-nlp/internal/config"
)

const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
)

// NewFromConfig elige el cliente según LLM_PROVIDER. Devuelve nil sin error cuando
// no hay proveedor: los tiers neuronales quedan no disponibles.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (LLMClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	switch provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderOpenAI:
		if cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("llm provider %q requires LLM_API_KEY", provider)
		}
		return NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, logger), nil
	case ProviderHTTP:
		return NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
