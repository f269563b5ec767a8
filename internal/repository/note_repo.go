package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"casenote-nlp/internal/domain"
)

// NoteRepository expone las notas crudas del registro externo.
type NoteRepository interface {
	Create(ctx context.Context, note domain.Note) error
	// ListPending devuelve notas sin análisis, las más antiguas primero.
	ListPending(ctx context.Context, limit int) ([]domain.Note, error)
}

type PgNoteRepository struct {
	pool *pgxpool.Pool
}

func NewPgNoteRepository(pool *pgxpool.Pool) *PgNoteRepository {
	return &PgNoteRepository{pool: pool}
}

func (r *PgNoteRepository) Create(ctx context.Context, note domain.Note) error {
	const query = `
		INSERT INTO notes (id, subject_id, text, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, note.ID, note.SubjectID, note.Text, note.CreatedAt)
	return err
}

func (r *PgNoteRepository) ListPending(ctx context.Context, limit int) ([]domain.Note, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT n.id, n.subject_id, n.text, n.created_at
		FROM notes n
		LEFT JOIN note_analyses a ON a.note_id = n.id
		WHERE a.id IS NULL
		ORDER BY n.created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.SubjectID, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
