package nlp

import (
	"context"
	"fmt"
	"strings"

	"casenote-nlp/internal/llm"
)

const sentimentPrompt = `You are a sentiment classifier for clinical case notes written by care staff.
Score the overall sentiment of the note below. Return ONLY JSON with this shape:
{"scores": [{"label": "POSITIVE", "score": 0.0}, {"label": "NEGATIVE", "score": 0.0}]}
Scores are confidences between 0 and 1 and must sum to 1.

Note:
`

const zeroShotPrompt = `You are a zero-shot text classifier for clinical case notes.
Candidate labels: emotional, cognitive, social.
- emotional: mood, affect, feelings, emotional regulation
- cognitive: attention, memory, orientation, thinking
- social: interaction with peers and staff, cooperation, withdrawal
For each label give the probability that the note is about it. Return ONLY JSON with this shape:
{"scores": [{"label": "emotional", "score": 0.0}, {"label": "cognitive", "score": 0.0}, {"label": "social", "score": 0.0}]}

Note:
`

// labelScores imita la salida de un pipeline de clasificación con todas las etiquetas.
type labelScores struct {
	Scores []labelScore `json:"scores" jsonschema:"required"`
}

type labelScore struct {
	Label string  `json:"label" jsonschema:"required"`
	Score float64 `json:"score" jsonschema:"required"`
}

var labelScoresSchema = llm.GenerateSchema[labelScores]("LabelScores", "Per-label classifier confidences")

// generateJSON usa salida estructurada cuando el cliente la soporta.
func generateJSON(ctx context.Context, client llm.LLMClient, prompt string, schema llm.Schema, v any) error {
	var (
		raw string
		err error
	)
	if sc, ok := client.(llm.StructuredClient); ok {
		raw, err = sc.GenerateStructured(ctx, prompt, schema)
	} else {
		raw, err = client.Generate(ctx, prompt)
	}
	if err != nil {
		return fmt.Errorf("llm generate: %w", err)
	}
	return llm.DecodeJSON(raw, v)
}

// neuralInit valida que el tier neuronal pueda usarse: toggle, cliente y ping opcional.
func neuralInit(enabled bool, client llm.LLMClient) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if !enabled {
			return unavailable("disabled by configuration")
		}
		if client == nil {
			return unavailable("no model client configured")
		}
		if p, ok := client.(llm.Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
			}
		}
		return nil
	}
}

// truncateTokens corta el texto a un máximo de tokens separados por espacios.
func truncateTokens(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	tokens := strings.Fields(text)
	if len(tokens) <= limit {
		return text
	}
	return strings.Join(tokens[:limit], " ")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
