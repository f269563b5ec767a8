package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"casenote-nlp/internal/domain"
	"casenote-nlp/internal/nlp"
	"casenote-nlp/internal/repository"
)

type memoryAnalysisRepo struct {
	mu        sync.Mutex
	items     []domain.AnalysisResult
	failNotes map[string]bool
	listErr   error
	listCalls int
	lastQuery repository.AnalysisFilter
}

func (r *memoryAnalysisRepo) Create(_ context.Context, a domain.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNotes[a.NoteID] {
		return errors.New("insert failed")
	}
	r.items = append(r.items, a)
	return nil
}

func (r *memoryAnalysisRepo) ListBySubject(_ context.Context, subjectID string, limit int) ([]domain.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AnalysisResult
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].SubjectID == subjectID {
			out = append(out, r.items[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryAnalysisRepo) ListBySubjectBetween(_ context.Context, subjectID string, start, end time.Time) ([]domain.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.AnalysisResult
	for _, a := range r.items {
		if a.SubjectID != subjectID {
			continue
		}
		// Igual que un store real: los registros sin fecha también vuelven.
		if a.NoteCreatedAt.IsZero() || (!a.NoteCreatedAt.Before(start) && a.NoteCreatedAt.Before(end)) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NoteCreatedAt.Before(out[j].NoteCreatedAt) })
	return out, nil
}

func (r *memoryAnalysisRepo) Search(_ context.Context, f repository.AnalysisFilter) ([]domain.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = f
	return nil, nil
}

func (r *memoryAnalysisRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.items {
		if a.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memoryAnalysisRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type memoryNoteRepo struct {
	notes []domain.Note
	err   error
}

func (r *memoryNoteRepo) Create(_ context.Context, n domain.Note) error {
	r.notes = append(r.notes, n)
	return nil
}

func (r *memoryNoteRepo) ListPending(_ context.Context, limit int) ([]domain.Note, error) {
	if r.err != nil {
		return nil, r.err
	}
	if limit > 0 && len(r.notes) > limit {
		return r.notes[:limit], nil
	}
	return r.notes, nil
}

type memoryMetricsCache struct {
	mu          sync.Mutex
	items       map[string]domain.AggregateMetrics
	invalidated []string
}

func newMemoryMetricsCache() *memoryMetricsCache {
	return &memoryMetricsCache{items: map[string]domain.AggregateMetrics{}}
}

func (c *memoryMetricsCache) Get(_ context.Context, subjectID, field string) (domain.AggregateMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.items[subjectID+"/"+field]
	return m, ok
}

func (c *memoryMetricsCache) Set(_ context.Context, subjectID, field string, m domain.AggregateMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[subjectID+"/"+field] = m
}

func (c *memoryMetricsCache) Invalidate(_ context.Context, subjectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, subjectID)
}

// offlineOptions deja sólo los tiers locales y deterministas.
func offlineOptions() nlp.Options {
	opts := nlp.DefaultOptions()
	opts.EnableNeuralSentiment = false
	opts.EnableNeuralDomains = false
	opts.EnableLinguisticKeywords = false
	return opts
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
