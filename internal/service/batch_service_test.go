package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"casenote-nlp/internal/domain"
)

type countingBatchObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingBatchObserver) ObserveBatchNote(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[result]++
}

func testNotes(n int) []domain.Note {
	notes := make([]domain.Note, 0, n)
	for i := 0; i < n; i++ {
		notes = append(notes, domain.Note{
			ID:        fmt.Sprintf("n%d", i),
			SubjectID: "s1",
			Text:      "Client was calm and cooperative",
			CreatedAt: testNow.Add(-time.Duration(i) * time.Hour),
		})
	}
	return notes
}

func TestBatchServiceAnalyzeBatch(t *testing.T) {
	repo := &memoryAnalysisRepo{failNotes: map[string]bool{"n3": true}}
	analyzer := newTestAnalyzer(offlineOptions(), repo, nil)
	obs := &countingBatchObserver{}
	svc := NewBatchService(nil, analyzer, 3, obs, zap.NewNop())

	report, err := svc.AnalyzeBatch(context.Background(), testNotes(10))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Total != 10 || report.Analyzed != 9 || report.Failed != 1 || report.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 || report.Errors[0].NoteID != "n3" {
		t.Fatalf("expected failure for n3, got %+v", report.Errors)
	}
	if repo.count() != 9 {
		t.Fatalf("expected 9 stored analyses, got %d", repo.count())
	}
	if obs.counts["analyzed"] != 9 || obs.counts["failed"] != 1 {
		t.Fatalf("unexpected observer counts: %+v", obs.counts)
	}
}

func TestBatchServiceCancelledContext(t *testing.T) {
	repo := &memoryAnalysisRepo{}
	analyzer := newTestAnalyzer(offlineOptions(), repo, nil)
	svc := NewBatchService(nil, analyzer, 2, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := svc.AnalyzeBatch(ctx, testNotes(5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Skipped != 5 || report.Analyzed != 0 {
		t.Fatalf("expected all notes skipped, got %+v", report)
	}
}

func TestBatchServiceBackfill(t *testing.T) {
	repo := &memoryAnalysisRepo{}
	notes := &memoryNoteRepo{notes: testNotes(4)}
	analyzer := newTestAnalyzer(offlineOptions(), repo, nil)
	svc := NewBatchService(notes, analyzer, 0, nil, zap.NewNop())

	report, err := svc.Backfill(context.Background(), 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Total != 3 || report.Analyzed != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}

	failing := NewBatchService(&memoryNoteRepo{err: errors.New("db down")}, analyzer, 1, nil, zap.NewNop())
	if _, err := failing.Backfill(context.Background(), 3); err == nil {
		t.Fatalf("expected list error")
	}
	if _, err := NewBatchService(nil, analyzer, 1, nil, zap.NewNop()).Backfill(context.Background(), 1); !errors.Is(err, ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}
