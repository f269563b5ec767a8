package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"casenote-nlp/internal/domain"
	"casenote-nlp/internal/repository"
)

// NoteQueryService consulta análisis guardados por keyword, sentimiento o dominio.
type NoteQueryService struct {
	repo   repository.AnalysisRepository
	logger *zap.Logger
}

func NewNoteQueryService(repo repository.AnalysisRepository, logger *zap.Logger) *NoteQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteQueryService{repo: repo, logger: logger}
}

func (s *NoteQueryService) Recent(ctx context.Context, subjectID string, limit int) ([]domain.AnalysisResult, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, ErrEmptySubject
	}
	return s.repo.ListBySubject(ctx, subjectID, limit)
}

func (s *NoteQueryService) SearchByKeywords(ctx context.Context, subjectID string, keywords []string, limit int) ([]domain.AnalysisResult, error) {
	return s.Search(ctx, repository.AnalysisFilter{SubjectID: subjectID, Keywords: keywords, Limit: limit})
}

func (s *NoteQueryService) BySentiment(ctx context.Context, subjectID, label string, limit int) ([]domain.AnalysisResult, error) {
	return s.Search(ctx, repository.AnalysisFilter{
		SubjectID: subjectID,
		Sentiment: domain.SentimentLabel(strings.ToLower(strings.TrimSpace(label))),
		Limit:     limit,
	})
}

func (s *NoteQueryService) ByDomainScore(ctx context.Context, subjectID, d string, minScore float64, limit int) ([]domain.AnalysisResult, error) {
	return s.Search(ctx, repository.AnalysisFilter{
		SubjectID:      subjectID,
		Domain:         domain.Domain(strings.ToLower(strings.TrimSpace(d))),
		MinDomainScore: minScore,
		Limit:          limit,
	})
}

// Search valida el filtro y delega en el repositorio.
func (s *NoteQueryService) Search(ctx context.Context, filter repository.AnalysisFilter) ([]domain.AnalysisResult, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	out, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search analyses for subject %s: %w", filter.SubjectID, err)
	}
	return out, nil
}

func (s *NoteQueryService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("analysis id is required")
	}
	return s.repo.Delete(ctx, id)
}

func validateFilter(f repository.AnalysisFilter) error {
	if strings.TrimSpace(f.SubjectID) == "" {
		return ErrEmptySubject
	}
	switch f.Sentiment {
	case "", domain.SentimentPositive, domain.SentimentNeutral, domain.SentimentNegative:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSentiment, f.Sentiment)
	}
	if f.Domain != "" {
		known := false
		for _, d := range domain.Domains {
			known = known || d == f.Domain
		}
		if !known {
			return fmt.Errorf("%w: %q", ErrInvalidDomain, f.Domain)
		}
		if f.MinDomainScore < -1 || f.MinDomainScore > 1 {
			return fmt.Errorf("min domain score %.2f outside [-1, 1]", f.MinDomainScore)
		}
	}
	return nil
}
