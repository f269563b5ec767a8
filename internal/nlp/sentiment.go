package nlp

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"casenote-nlp/internal/domain"
)

const (
	StageSentiment = "sentiment"

	TierNeuralSentiment  = "neural"
	TierLexicalSentiment = "lexical"
	TierHeuristic        = "heuristic"
)

const (
	heuristicPolarity     = 0.5
	defaultSubjectivity   = 0.5
	lexicalLabelThreshold = 0.1
)

// SentimentClassifier asigna polaridad probando neural -> léxico -> heurística.
type SentimentClassifier struct {
	chain *chain[domain.Sentiment]
}

func NewSentimentClassifier(lex *Lexicon, opts Options, logger *zap.Logger) *SentimentClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lex == nil {
		lex = DefaultLexicon()
	}
	neural := &neuralSentimentTier{
		opts:  opts,
		probe: capabilityProbe(logger, StageSentiment, TierNeuralSentiment, opts.TierTimeout, neuralInit(opts.EnableNeuralSentiment, opts.Client)),
	}
	lexical := &lexicalSentimentTier{
		lex: lex,
		probe: capabilityProbe(logger, StageSentiment, TierLexicalSentiment, 0, func(context.Context) error {
			if !opts.EnableLexicalSentiment {
				return unavailable("disabled by configuration")
			}
			if len(lex.Polarity.Words) == 0 {
				return unavailable("polarity lexicon is empty")
			}
			return nil
		}),
	}
	return &SentimentClassifier{
		chain: &chain[domain.Sentiment]{
			stage:     StageSentiment,
			tiers:     []Tier[domain.Sentiment]{neural, lexical},
			floorName: TierHeuristic,
			floor: func(text string) domain.Sentiment {
				return HeuristicSentiment(lex, text)
			},
			timeout:  opts.TierTimeout,
			observer: opts.observer(),
			logger:   logger,
		},
	}
}

// Classify nunca falla: en el peor caso devuelve la heurística de palabras clave.
func (c *SentimentClassifier) Classify(ctx context.Context, text string) domain.Sentiment {
	out, tier := c.chain.run(ctx, text)
	out.Tier = tier
	return out
}

func (c *SentimentClassifier) Status(ctx context.Context) []TierStatus {
	return c.chain.status(ctx)
}

// HeuristicSentiment es el tier C: conteo de substrings sobre listas fijas.
// Determinístico; empate -> neutral.
func HeuristicSentiment(lex *Lexicon, text string) domain.Sentiment {
	lower := strings.ToLower(text)
	pos := countSubstrings(lower, lex.Sentiment.Positive)
	neg := countSubstrings(lower, lex.Sentiment.Negative)

	out := domain.Sentiment{
		Label:        domain.SentimentNeutral,
		Subjectivity: defaultSubjectivity,
		Tier:         TierHeuristic,
	}
	switch {
	case pos > neg:
		out.Label = domain.SentimentPositive
		out.Polarity = heuristicPolarity
	case neg > pos:
		out.Label = domain.SentimentNegative
		out.Polarity = -heuristicPolarity
	}
	out.Score = domain.ScoreForLabel(out.Label)
	return out
}

type neuralSentimentTier struct {
	opts  Options
	probe *Probe
}

func (t *neuralSentimentTier) Name() string { return TierNeuralSentiment }

func (t *neuralSentimentTier) Available(ctx context.Context) error {
	return t.probe.Check(ctx)
}

func (t *neuralSentimentTier) Invoke(ctx context.Context, text string) (domain.Sentiment, error) {
	input := truncateTokens(text, t.opts.TokenLimit)

	var parsed labelScores
	if err := generateJSON(ctx, t.opts.Client, sentimentPrompt+input, labelScoresSchema, &parsed); err != nil {
		return domain.Sentiment{}, err
	}
	if len(parsed.Scores) == 0 {
		return domain.Sentiment{}, errors.New("neural sentiment: empty scores")
	}

	best := parsed.Scores[0]
	for _, s := range parsed.Scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	confidence := clamp(best.Score, 0, 1)

	out := domain.Sentiment{
		Label:        domain.SentimentNeutral,
		Subjectivity: defaultSubjectivity,
		Confidence:   &confidence,
	}
	if confidence > t.opts.ConfidenceFloor {
		switch strings.ToUpper(strings.TrimSpace(best.Label)) {
		case "POSITIVE":
			out.Label = domain.SentimentPositive
			out.Polarity = confidence
		case "NEGATIVE":
			out.Label = domain.SentimentNegative
			out.Polarity = -confidence
		}
	}
	out.Score = domain.ScoreForLabel(out.Label)
	return out, nil
}

type lexicalSentimentTier struct {
	lex   *Lexicon
	probe *Probe
}

func (t *lexicalSentimentTier) Name() string { return TierLexicalSentiment }

func (t *lexicalSentimentTier) Available(ctx context.Context) error {
	return t.probe.Check(ctx)
}

func (t *lexicalSentimentTier) Invoke(_ context.Context, text string) (domain.Sentiment, error) {
	polarity, subjectivity := ScorePolarity(t.lex, text)
	label := domain.SentimentNeutral
	switch {
	case polarity > lexicalLabelThreshold:
		label = domain.SentimentPositive
	case polarity < -lexicalLabelThreshold:
		label = domain.SentimentNegative
	}
	return domain.Sentiment{
		Label:        label,
		Score:        domain.ScoreForLabel(label),
		Polarity:     polarity,
		Subjectivity: subjectivity,
	}, nil
}
