package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"casenote-nlp/internal/domain"
)

// sqliteTime tiene ancho fijo para que el orden lexicográfico coincida con el cronológico.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(sqliteTime, s)
}

// SQLiteStore es el registro local embebido; implementa AnalysisRepository y NoteRepository.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Create(ctx context.Context, analysis domain.AnalysisResult) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	var noteID interface{}
	if analysis.NoteID != "" {
		noteID = analysis.NoteID
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO note_analyses (id, note_id, subject_id, note_created_at, sentiment_label, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		analysis.ID,
		noteID,
		analysis.SubjectID,
		formatTime(analysis.NoteCreatedAt),
		string(analysis.Sentiment.Label),
		string(payload),
		formatTime(analysis.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.AnalysisResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM note_analyses
		 WHERE subject_id = ?
		 ORDER BY note_created_at DESC, created_at DESC
		 LIMIT ?`,
		subjectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return scanSQLitePayloads(rows)
}

func (s *SQLiteStore) ListBySubjectBetween(ctx context.Context, subjectID string, start, end time.Time) ([]domain.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM note_analyses
		 WHERE subject_id = ? AND note_created_at >= ? AND note_created_at < ?
		 ORDER BY note_created_at ASC, created_at ASC`,
		subjectID, formatTime(start), formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses in window: %w", err)
	}
	return scanSQLitePayloads(rows)
}

func (s *SQLiteStore) Search(ctx context.Context, filter AnalysisFilter) ([]domain.AnalysisResult, error) {
	conds := []string{"subject_id = ?"}
	args := []interface{}{filter.SubjectID}

	if kws := filter.keywords(); len(kws) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(kws)), ",")
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(payload, '$.keywords') WHERE value IN ("+placeholders+"))")
		for _, k := range kws {
			args = append(args, k)
		}
	}
	if filter.Sentiment != "" {
		conds = append(conds, "sentiment_label = ?")
		args = append(args, string(filter.Sentiment))
	}
	if filter.Domain != "" {
		conds = append(conds, "CAST(json_extract(payload, ?) AS REAL) >= ?")
		args = append(args, "$.tags."+string(filter.Domain)+".score", filter.MinDomainScore)
	}
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM note_analyses
		 WHERE `+strings.Join(conds, " AND ")+`
		 ORDER BY note_created_at DESC, created_at DESC
		 LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("search analyses: %w", err)
	}
	return scanSQLitePayloads(rows)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM note_analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateNote y ListPending cubren el lado de notas crudas del registro.
func (s *SQLiteStore) CreateNote(ctx context.Context, note domain.Note) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, subject_id, text, created_at) VALUES (?, ?, ?, ?)`,
		note.ID, note.SubjectID, note.Text, formatTime(note.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Note, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.id, n.subject_id, n.text, n.created_at
		 FROM notes n
		 LEFT JOIN note_analyses a ON a.note_id = n.id
		 WHERE a.id IS NULL
		 ORDER BY n.created_at ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var (
			n       domain.Note
			created string
		)
		if err := rows.Scan(&n.ID, &n.SubjectID, &n.Text, &created); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if n.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("note %s created_at: %w", n.ID, err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Notes adapta el store a NoteRepository.
func (s *SQLiteStore) Notes() NoteRepository {
	return sqliteNotes{s}
}

type sqliteNotes struct{ s *SQLiteStore }

func (n sqliteNotes) Create(ctx context.Context, note domain.Note) error {
	return n.s.CreateNote(ctx, note)
}

func (n sqliteNotes) ListPending(ctx context.Context, limit int) ([]domain.Note, error) {
	return n.s.ListPending(ctx, limit)
}

func scanSQLitePayloads(rows *sql.Rows) ([]domain.AnalysisResult, error) {
	defer rows.Close()
	var out []domain.AnalysisResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a, err := decodeAnalysis([]byte(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var (
	_ AnalysisRepository = (*SQLiteStore)(nil)
	_ AnalysisRepository = (*PgAnalysisRepository)(nil)
	_ NoteRepository     = (*PgNoteRepository)(nil)
)
