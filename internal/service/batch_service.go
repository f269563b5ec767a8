package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"casenote-nlp/internal/domain"
	"casenote-nlp/internal/repository"
)

// BatchObserver recibe el resultado de cada nota procesada en lote.
type BatchObserver interface {
	ObserveBatchNote(result string)
}

type BatchError struct {
	NoteID string `json:"note_id"`
	Error  string `json:"error"`
}

// BatchReport resume una corrida; Errors lista sólo las notas fallidas.
type BatchReport struct {
	Total    int           `json:"total"`
	Analyzed int           `json:"analyzed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Errors   []BatchError  `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

// BatchService analiza muchas notas con concurrencia acotada.
type BatchService struct {
	notes    repository.NoteRepository
	analyzer *NoteAnalyzer
	workers  int
	observer BatchObserver
	logger   *zap.Logger
}

func NewBatchService(notes repository.NoteRepository, analyzer *NoteAnalyzer, workers int, observer BatchObserver, logger *zap.Logger) *BatchService {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{
		notes:    notes,
		analyzer: analyzer,
		workers:  workers,
		observer: observer,
		logger:   logger,
	}
}

// AnalyzeBatch analiza y persiste cada nota. Una falla individual no aborta el lote;
// sólo la cancelación de ctx lo corta (las notas no iniciadas cuentan como skipped).
func (s *BatchService) AnalyzeBatch(ctx context.Context, notes []domain.Note) (BatchReport, error) {
	start := time.Now()
	report := BatchReport{Total: len(notes)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	started := 0
	for _, note := range notes {
		if gctx.Err() != nil {
			break
		}
		started++
		g.Go(func() error {
			_, err := s.analyzer.AnalyzeAndPersist(gctx, note)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, BatchError{NoteID: note.ID, Error: err.Error()})
				s.observe("failed")
				s.logger.Warn("batch note failed", zap.String("note_id", note.ID), zap.Error(err))
				return nil
			}
			report.Analyzed++
			s.observe("analyzed")
			return nil
		})
	}
	_ = g.Wait()

	report.Skipped = report.Total - started
	report.Duration = time.Since(start)
	s.logger.Info("batch analysis finished",
		zap.Int("total", report.Total),
		zap.Int("analyzed", report.Analyzed),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
	)
	return report, ctx.Err()
}

// Backfill analiza hasta limit notas pendientes del registro.
func (s *BatchService) Backfill(ctx context.Context, limit int) (BatchReport, error) {
	if s.notes == nil {
		return BatchReport{}, ErrNoStore
	}
	pending, err := s.notes.ListPending(ctx, limit)
	if err != nil {
		return BatchReport{}, err
	}
	return s.AnalyzeBatch(ctx, pending)
}

func (s *BatchService) observe(result string) {
	if s.observer != nil {
		s.observer.ObserveBatchNote(result)
	}
}
