package domain

import "time"

// Note es la nota narrativa tal como la entrega el registro externo. Nunca se modifica.
type Note struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
