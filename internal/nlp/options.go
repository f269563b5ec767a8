package nlp

import (
	"time"

	"casenote-nlp/internal/config"
	"casenote-nlp/internal/llm"
)

// Options controla qué tiers se intentan y con qué constantes.
// Las constantes empíricas (umbrales 0.4/0.2, piso de confianza) quedan configurables.
type Options struct {
	Client llm.LLMClient

	EnableNeuralSentiment    bool
	EnableNeuralDomains      bool
	EnableLexicalSentiment   bool
	EnableLinguisticKeywords bool

	TokenLimit            int
	ConfidenceFloor       float64
	DomainHighThreshold   float64
	DomainMediumThreshold float64
	TierTimeout           time.Duration

	Observer Observer
}

// DefaultOptions habilita todo con las constantes originales y sin cliente de modelo.
func DefaultOptions() Options {
	return Options{
		EnableNeuralSentiment:    true,
		EnableNeuralDomains:      true,
		EnableLexicalSentiment:   true,
		EnableLinguisticKeywords: true,
		TokenLimit:               512,
		DomainHighThreshold:      0.4,
		DomainMediumThreshold:    0.2,
		TierTimeout:              15 * time.Second,
	}
}

// OptionsFromConfig traduce la configuración del proceso a opciones de análisis.
func OptionsFromConfig(cfg *config.Config, client llm.LLMClient, observer Observer) Options {
	return Options{
		Client:                   client,
		EnableNeuralSentiment:    cfg.EnableNeuralSentiment,
		EnableNeuralDomains:      cfg.EnableNeuralDomainClassifier,
		EnableLexicalSentiment:   cfg.EnableLexicalSentiment,
		EnableLinguisticKeywords: cfg.EnableLinguisticKeywords,
		TokenLimit:               cfg.SentimentTokenLimit,
		ConfidenceFloor:          cfg.SentimentConfidenceFloor,
		DomainHighThreshold:      cfg.DomainHighThreshold,
		DomainMediumThreshold:    cfg.DomainMediumThreshold,
		TierTimeout:              cfg.TierTimeout,
		Observer:                 observer,
	}
}

func (o Options) observer() Observer {
	if o.Observer == nil {
		return nopObserver{}
	}
	return o.Observer
}
