package nlp

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"casenote-nlp/internal/domain"
)

const (
	StageDomains = "domains"

	TierZeroShot      = "zero_shot"
	TierDomainLexicon = "lexicon"
)

// DomainTagger puntúa las tres áreas funcionales: zero-shot -> conteo léxico.
type DomainTagger struct {
	chain *chain[domain.DomainTags]
}

func NewDomainTagger(lex *Lexicon, opts Options, logger *zap.Logger) *DomainTagger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lex == nil {
		lex = DefaultLexicon()
	}
	zeroShot := &zeroShotTier{
		opts:  opts,
		probe: capabilityProbe(logger, StageDomains, TierZeroShot, opts.TierTimeout, neuralInit(opts.EnableNeuralDomains, opts.Client)),
	}
	return &DomainTagger{
		chain: &chain[domain.DomainTags]{
			stage:     StageDomains,
			tiers:     []Tier[domain.DomainTags]{zeroShot},
			floorName: TierDomainLexicon,
			floor: func(text string) domain.DomainTags {
				return LexiconDomains(lex, text)
			},
			timeout:  opts.TierTimeout,
			observer: opts.observer(),
			logger:   logger,
		},
	}
}

// Tag siempre devuelve las tres áreas.
func (t *DomainTagger) Tag(ctx context.Context, text string) (domain.DomainTags, string) {
	return t.chain.run(ctx, text)
}

func (t *DomainTagger) Status(ctx context.Context) []TierStatus {
	return t.chain.status(ctx)
}

// LexiconDomains cuenta términos positivos, negativos y neutros por área.
// score = (pos - neg) / total, redondeado a 2 decimales; 0 si no hay menciones.
func LexiconDomains(lex *Lexicon, text string) domain.DomainTags {
	lower := strings.ToLower(text)
	tags := domain.NewDomainTags()
	for _, d := range domain.Domains {
		lists := lex.Domains[d]
		counts := domain.DomainCounts{
			Positive: countSubstrings(lower, lists.Positive),
			Negative: countSubstrings(lower, lists.Negative),
			Neutral:  countSubstrings(lower, lists.Neutral),
		}
		total := counts.Total()
		score := 0.0
		if total > 0 {
			score = round2(float64(counts.Positive-counts.Negative) / float64(total))
		}
		tags[d] = domain.DomainScore{Score: score, Counts: counts, TotalMentions: total}
	}
	return tags
}

type zeroShotTier struct {
	opts  Options
	probe *Probe
}

func (t *zeroShotTier) Name() string { return TierZeroShot }

func (t *zeroShotTier) Available(ctx context.Context) error {
	return t.probe.Check(ctx)
}

func (t *zeroShotTier) Invoke(ctx context.Context, text string) (domain.DomainTags, error) {
	var parsed labelScores
	if err := generateJSON(ctx, t.opts.Client, zeroShotPrompt+truncateTokens(text, t.opts.TokenLimit), labelScoresSchema, &parsed); err != nil {
		return nil, err
	}

	scores := make(map[domain.Domain]float64, len(domain.Domains))
	sum := 0.0
	for _, s := range parsed.Scores {
		d := domain.Domain(strings.ToLower(strings.TrimSpace(s.Label)))
		if !isKnownDomain(d) {
			continue
		}
		scores[d] = clamp(s.Score, 0, 1)
	}
	for _, v := range scores {
		sum += v
	}
	if len(scores) != len(domain.Domains) {
		return nil, fmt.Errorf("zero-shot: expected %d labels, got %d", len(domain.Domains), len(scores))
	}

	tags := domain.NewDomainTags()
	for _, d := range domain.Domains {
		// Probabilidades de una sola etiqueta: se renormalizan para sumar 1.
		score := 1.0 / float64(len(domain.Domains))
		if sum > 0 {
			score = scores[d] / sum
		}
		var counts domain.DomainCounts
		switch {
		case score > t.opts.DomainHighThreshold:
			counts.Positive = 1
		case score > t.opts.DomainMediumThreshold:
			counts.Neutral = 1
		default:
			counts.Negative = 1
		}
		tags[d] = domain.DomainScore{Score: round2(score), Counts: counts, TotalMentions: 1}
	}
	return tags, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
