package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"casenote-nlp/internal/domain"
)

// ErrNotFound se devuelve al borrar un análisis inexistente.
var ErrNotFound = errors.New("not found")

// AnalysisRepository guarda resultados append-only, indexados por sujeto y fecha de la nota.
type AnalysisRepository interface {
	Create(ctx context.Context, analysis domain.AnalysisResult) error
	// ListBySubject devuelve los más recientes primero.
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.AnalysisResult, error)
	// ListBySubjectBetween devuelve los análisis con nota en [start, end), en orden cronológico.
	ListBySubjectBetween(ctx context.Context, subjectID string, start, end time.Time) ([]domain.AnalysisResult, error)
	Search(ctx context.Context, filter AnalysisFilter) ([]domain.AnalysisResult, error)
	Delete(ctx context.Context, id string) error
}

// AnalysisFilter combina los criterios de búsqueda; los campos vacíos no filtran.
type AnalysisFilter struct {
	SubjectID      string
	Keywords       []string
	Sentiment      domain.SentimentLabel
	Domain         domain.Domain
	MinDomainScore float64
	Limit          int
}

func (f AnalysisFilter) limit() int {
	if f.Limit <= 0 {
		return 50
	}
	return f.Limit
}

func (f AnalysisFilter) keywords() []string {
	out := make([]string, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

type PgAnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewPgAnalysisRepository(pool *pgxpool.Pool) *PgAnalysisRepository {
	return &PgAnalysisRepository{pool: pool}
}

func (r *PgAnalysisRepository) Create(ctx context.Context, analysis domain.AnalysisResult) error {
	id, err := uuid.Parse(analysis.ID)
	if err != nil {
		return fmt.Errorf("analysis id: %w", err)
	}
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	const query = `
		INSERT INTO note_analyses (id, note_id, subject_id, note_created_at, sentiment_label, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var noteID interface{}
	if analysis.NoteID != "" {
		noteID = analysis.NoteID
	}

	_, err = r.pool.Exec(ctx, query,
		id,
		noteID,
		analysis.SubjectID,
		analysis.NoteCreatedAt,
		string(analysis.Sentiment.Label),
		payload,
		analysis.CreatedAt,
	)
	return err
}

func (r *PgAnalysisRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.AnalysisResult, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT payload
		FROM note_analyses
		WHERE subject_id = $1
		ORDER BY note_created_at DESC, created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, subjectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayloads(rows)
}

func (r *PgAnalysisRepository) ListBySubjectBetween(ctx context.Context, subjectID string, start, end time.Time) ([]domain.AnalysisResult, error) {
	const query = `
		SELECT payload
		FROM note_analyses
		WHERE subject_id = $1 AND note_created_at >= $2 AND note_created_at < $3
		ORDER BY note_created_at ASC, created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, subjectID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayloads(rows)
}

func (r *PgAnalysisRepository) Search(ctx context.Context, filter AnalysisFilter) ([]domain.AnalysisResult, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) int {
		args = append(args, v)
		return len(args)
	}

	conds = append(conds, fmt.Sprintf("subject_id = $%d", arg(filter.SubjectID)))
	if kws := filter.keywords(); len(kws) > 0 {
		conds = append(conds, fmt.Sprintf("payload -> 'keywords' ?| $%d", arg(kws)))
	}
	if filter.Sentiment != "" {
		conds = append(conds, fmt.Sprintf("sentiment_label = $%d", arg(string(filter.Sentiment))))
	}
	if filter.Domain != "" {
		d := arg(string(filter.Domain))
		s := arg(filter.MinDomainScore)
		conds = append(conds, fmt.Sprintf("(payload -> 'tags' -> $%d ->> 'score')::float8 >= $%d", d, s))
	}

	query := fmt.Sprintf(`
		SELECT payload
		FROM note_analyses
		WHERE %s
		ORDER BY note_created_at DESC, created_at DESC
		LIMIT $%d
	`, strings.Join(conds, " AND "), arg(filter.limit()))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayloads(rows)
}

func (r *PgAnalysisRepository) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("analysis id: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM note_analyses WHERE id = $1`, parsed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPayloads(rows pgxRows) ([]domain.AnalysisResult, error) {
	var out []domain.AnalysisResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		a, err := decodeAnalysis(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func decodeAnalysis(payload []byte) (domain.AnalysisResult, error) {
	var a domain.AnalysisResult
	if err := json.Unmarshal(payload, &a); err != nil {
		return a, fmt.Errorf("decode analysis payload: %w", err)
	}
	if a.DomainTags == nil {
		a.DomainTags = domain.NewDomainTags()
	}
	if a.Keywords == nil {
		a.Keywords = []string{}
	}
	return a, nil
}

// pgxRows is a minimal interface to allow scanning from pgx rows and simplify testing.
type pgxRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}
