package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"casenote-nlp/internal/domain"
	"casenote-nlp/internal/nlp"
	"casenote-nlp/internal/repository"
)

// AnalysisTimer recibe la duración de cada análisis; el Observer de nlp puede implementarlo.
type AnalysisTimer interface {
	ObserveAnalysis(d time.Duration)
}

// NoteAnalyzer corre sentimiento, keywords y dominios sobre una nota y arma el AnalysisResult.
type NoteAnalyzer struct {
	sentiment *nlp.SentimentClassifier
	keywords  *nlp.KeywordExtractor
	domains   *nlp.DomainTagger
	repo      repository.AnalysisRepository
	cache     MetricsCache
	timer     AnalysisTimer
	now       func() time.Time
	logger    *zap.Logger
}

// NewNoteAnalyzer arma los tres analizadores. repo y cache pueden ser nil
// cuando sólo se usa el contrato puro (Analyze/AnalyzeNote).
func NewNoteAnalyzer(
	lex *nlp.Lexicon,
	opts nlp.Options,
	repo repository.AnalysisRepository,
	cache MetricsCache,
	logger *zap.Logger,
) *NoteAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	timer, _ := opts.Observer.(AnalysisTimer)
	return &NoteAnalyzer{
		sentiment: nlp.NewSentimentClassifier(lex, opts, logger),
		keywords:  nlp.NewKeywordExtractor(lex, opts, logger),
		domains:   nlp.NewDomainTagger(lex, opts, logger),
		repo:      repo,
		cache:     cache,
		timer:     timer,
		now:       time.Now,
		logger:    logger,
	}
}

// Analyze es total: texto vacío o sin caracteres válidos devuelve el análisis vacío.
func (a *NoteAnalyzer) Analyze(ctx context.Context, rawText string) domain.AnalysisResult {
	start := time.Now()
	defer func() {
		if a.timer != nil {
			a.timer.ObserveAnalysis(time.Since(start))
		}
	}()

	now := a.now().UTC()
	if strings.TrimSpace(rawText) == "" {
		return domain.EmptyAnalysis(now)
	}

	normalized := nlp.Normalize(rawText)
	if normalized == "" {
		// Sólo caracteres descartados: resultado vacío, pero el texto original queda para auditoría.
		res := domain.EmptyAnalysis(now)
		res.Text = rawText
		res.Metadata.TextLength = utf8.RuneCountInString(rawText)
		return res
	}

	var (
		sentiment  domain.Sentiment
		keywords   []string
		keywordSrc string
		tags       domain.DomainTags
		domainSrc  string
	)
	// Los tres analizadores no comparten datos; ninguno devuelve error.
	var g errgroup.Group
	g.Go(func() error {
		sentiment = a.sentiment.Classify(ctx, normalized)
		return nil
	})
	g.Go(func() error {
		keywords, keywordSrc = a.keywords.Extract(ctx, normalized)
		return nil
	})
	g.Go(func() error {
		tags, domainSrc = a.domains.Tag(ctx, normalized)
		return nil
	})
	_ = g.Wait()

	return domain.AnalysisResult{
		Text:       rawText,
		Sentiment:  sentiment,
		Keywords:   keywords,
		DomainTags: tags,
		CreatedAt:  now,
		Metadata: domain.AnalysisMetadata{
			TextLength:    utf8.RuneCountInString(rawText),
			WordCount:     len(strings.Fields(normalized)),
			SentimentTier: sentiment.Tier,
			KeywordTier:   keywordSrc,
			DomainTier:    domainSrc,
		},
	}
}

// AnalyzeNote analiza y asocia el resultado al sujeto y a la fecha de la nota.
func (a *NoteAnalyzer) AnalyzeNote(ctx context.Context, subjectID, rawText string, noteTime time.Time) domain.AnalysisResult {
	res := a.Analyze(ctx, rawText)
	res.ID = uuid.NewString()
	res.SubjectID = subjectID
	res.NoteCreatedAt = noteTime.UTC()
	return res
}

// AnalyzeAndPersist analiza la nota, guarda el resultado e invalida los agregados cacheados del sujeto.
func (a *NoteAnalyzer) AnalyzeAndPersist(ctx context.Context, note domain.Note) (domain.AnalysisResult, error) {
	if a.repo == nil {
		return domain.AnalysisResult{}, ErrNoStore
	}
	if strings.TrimSpace(note.SubjectID) == "" {
		return domain.AnalysisResult{}, ErrEmptySubject
	}

	res := a.AnalyzeNote(ctx, note.SubjectID, note.Text, note.CreatedAt)
	res.NoteID = note.ID
	if err := a.repo.Create(ctx, res); err != nil {
		a.logger.Warn("analysis persist failed",
			zap.String("subject_id", note.SubjectID),
			zap.String("note_id", note.ID),
			zap.Error(err),
		)
		return domain.AnalysisResult{}, fmt.Errorf("persist analysis for note %s: %w", note.ID, err)
	}
	if a.cache != nil {
		a.cache.Invalidate(ctx, note.SubjectID)
	}

	a.logger.Debug("note analyzed",
		zap.String("subject_id", note.SubjectID),
		zap.String("note_id", note.ID),
		zap.String("sentiment", string(res.Sentiment.Label)),
		zap.String("sentiment_tier", res.Metadata.SentimentTier),
		zap.String("keyword_tier", res.Metadata.KeywordTier),
		zap.String("domain_tier", res.Metadata.DomainTier),
	)
	return res, nil
}

// Status reporta la disponibilidad de cada tier de los tres analizadores.
func (a *NoteAnalyzer) Status(ctx context.Context) []nlp.TierStatus {
	var out []nlp.TierStatus
	out = append(out, a.sentiment.Status(ctx)...)
	out = append(out, a.keywords.Status(ctx)...)
	out = append(out, a.domains.Status(ctx)...)
	return out
}
