package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"casenote-nlp/internal/domain"
	"casenote-nlp/internal/nlp"
	"casenote-nlp/internal/repository"
)

const (
	weeklyWindow  = 7 * 24 * time.Hour
	monthlyWindow = 30 * 24 * time.Hour
)

// AggregateResults reduce una secuencia de análisis a métricas agregadas. Función pura:
// no filtra por fecha, agrega exactamente lo que recibe.
func AggregateResults(results []domain.AnalysisResult, period string, now time.Time) domain.AggregateMetrics {
	if len(results) == 0 {
		return domain.EmptyMetrics(now)
	}
	if strings.TrimSpace(period) == "" {
		period = domain.PeriodCustom
	}

	var (
		counts      domain.SentimentCounts
		scoreSum    int
		polaritySum float64
		keywords    []string
	)
	domains := domain.NewDomainTags()

	for _, r := range results {
		label := r.Sentiment.Label
		switch label {
		case domain.SentimentPositive:
			counts.Positive++
		case domain.SentimentNegative:
			counts.Negative++
		default:
			// Etiquetas desconocidas cuentan como neutras.
			label = domain.SentimentNeutral
			counts.Neutral++
		}
		scoreSum += domain.ScoreForLabel(label)
		polaritySum += r.Sentiment.Polarity

		for _, d := range domain.Domains {
			tag, ok := r.DomainTags[d]
			if !ok {
				continue
			}
			acc := domains[d]
			acc.Counts.Positive += tag.Counts.Positive
			acc.Counts.Negative += tag.Counts.Negative
			acc.Counts.Neutral += tag.Counts.Neutral
			acc.TotalMentions += tag.TotalMentions
			domains[d] = acc
		}

		keywords = append(keywords, r.Keywords...)
	}

	// El score se recalcula sobre los conteos combinados, no se promedia por nota.
	for d, acc := range domains {
		if total := acc.Counts.Total(); total > 0 {
			acc.Score = round2(float64(acc.Counts.Positive-acc.Counts.Negative) / float64(total))
		}
		domains[d] = acc
	}

	ranked := nlp.RankTerms(keywords, domain.MaxKeywords)
	freq := make([]domain.KeywordCount, 0, len(ranked))
	for _, tc := range ranked {
		freq = append(freq, domain.KeywordCount{Keyword: tc.Term, Count: tc.Count})
	}

	n := float64(len(results))
	return domain.AggregateMetrics{
		Period:     period,
		TotalNotes: len(results),
		Sentiment: domain.SentimentSummary{
			Counts:          counts,
			AverageScore:    round2(float64(scoreSum) / n),
			AveragePolarity: round2(polaritySum / n),
			Distribution:    distribution(counts),
		},
		DomainScores:     domains,
		KeywordFrequency: freq,
		CalculatedAt:     now,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// distribution reparte porcentajes con un decimal usando el método del mayor resto,
// así la suma es exactamente 100.0 cuando hay notas.
func distribution(c domain.SentimentCounts) domain.SentimentDistribution {
	total := c.Total()
	if total == 0 {
		return domain.SentimentDistribution{}
	}
	const units = 1000 // décimas de punto porcentual
	counts := [3]int{c.Positive, c.Neutral, c.Negative}
	var share, rem [3]int
	assigned := 0
	for i, n := range counts {
		share[i] = n * units / total
		rem[i] = n * units % total
		assigned += share[i]
	}
	for ; assigned < units; assigned++ {
		best := 0
		for i := 1; i < len(rem); i++ {
			if rem[i] > rem[best] {
				best = i
			}
		}
		share[best]++
		rem[best] = -1
	}
	return domain.SentimentDistribution{
		PositivePct: float64(share[0]) / 10,
		NeutralPct:  float64(share[1]) / 10,
		NegativePct: float64(share[2]) / 10,
	}
}

// FilterWindow conserva los análisis cuya nota cae en [start, end). Los registros sin
// fecha utilizable se descartan y se cuentan en skipped.
func FilterWindow(results []domain.AnalysisResult, start, end time.Time) (kept []domain.AnalysisResult, skipped int) {
	kept = make([]domain.AnalysisResult, 0, len(results))
	for _, r := range results {
		ts := r.NoteCreatedAt
		if ts.IsZero() {
			ts = r.CreatedAt
		}
		if ts.IsZero() {
			skipped++
			continue
		}
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, skipped
}

// WeeklyWindow devuelve los últimos 7 días hasta now (exclusivo).
func WeeklyWindow(now time.Time) (start, end time.Time) {
	return trailingWindow(now, weeklyWindow)
}

// MonthlyWindow devuelve los últimos 30 días.
func MonthlyWindow(now time.Time) (start, end time.Time) {
	return trailingWindow(now, monthlyWindow)
}

func trailingWindow(now time.Time, size time.Duration) (time.Time, time.Time) {
	end := now.UTC()
	return end.Add(-size), end
}

// ProgressService lee análisis de un sujeto en una ventana y los agrega bajo demanda.
type ProgressService struct {
	repo   repository.AnalysisRepository
	cache  MetricsCache
	now    func() time.Time
	logger *zap.Logger
}

func NewProgressService(repo repository.AnalysisRepository, cache MetricsCache, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		repo:   repo,
		cache:  cache,
		now:    time.Now,
		logger: logger,
	}
}

// Aggregate calcula las métricas de subjectID en [start, end). El cache es opcional y
// nunca es fuente de verdad.
func (s *ProgressService) Aggregate(ctx context.Context, subjectID string, start, end time.Time, period string) (domain.AggregateMetrics, error) {
	return s.aggregate(ctx, subjectID, start, end, period, cacheField(period, start.UTC(), end.UTC()))
}

func (s *ProgressService) aggregate(ctx context.Context, subjectID string, start, end time.Time, period, field string) (domain.AggregateMetrics, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return domain.AggregateMetrics{}, ErrEmptySubject
	}
	if !start.Before(end) {
		return domain.AggregateMetrics{}, ErrInvalidWindow
	}
	if s.repo == nil {
		return domain.AggregateMetrics{}, ErrNoStore
	}
	start, end = start.UTC(), end.UTC()

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, subjectID, field); ok {
			return cached, nil
		}
	}

	results, err := s.repo.ListBySubjectBetween(ctx, subjectID, start, end)
	if err != nil {
		return domain.AggregateMetrics{}, fmt.Errorf("list analyses for subject %s: %w", subjectID, err)
	}
	kept, skipped := FilterWindow(results, start, end)
	if skipped > 0 {
		s.logger.Warn("analyses without timestamp skipped",
			zap.String("subject_id", subjectID),
			zap.Int("skipped", skipped),
		)
	}

	metrics := AggregateResults(kept, period, s.now().UTC())
	metrics.SubjectID = subjectID
	metrics.WindowStart = &start
	metrics.WindowEnd = &end
	metrics.SkippedNotes = skipped

	if s.cache != nil {
		s.cache.Set(ctx, subjectID, field, metrics)
	}
	return metrics, nil
}

// Weekly agrega los últimos 7 días. Dentro del mismo minuto se reutiliza el valor
// cacheado; una nota nueva persistida invalida el cache del sujeto.
func (s *ProgressService) Weekly(ctx context.Context, subjectID string) (domain.AggregateMetrics, error) {
	start, end := WeeklyWindow(s.now())
	return s.aggregate(ctx, subjectID, start, end, domain.PeriodWeekly, trailingField(domain.PeriodWeekly, end))
}

func (s *ProgressService) Monthly(ctx context.Context, subjectID string) (domain.AggregateMetrics, error) {
	start, end := MonthlyWindow(s.now())
	return s.aggregate(ctx, subjectID, start, end, domain.PeriodMonthly, trailingField(domain.PeriodMonthly, end))
}

func cacheField(period string, start, end time.Time) string {
	return period + "|" + start.Format(time.RFC3339Nano) + "|" + end.Format(time.RFC3339Nano)
}

// trailingField agrupa las ventanas móviles por minuto.
func trailingField(period string, end time.Time) string {
	return period + "|trailing|" + end.UTC().Truncate(time.Minute).Format(time.RFC3339)
}
