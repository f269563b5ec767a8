package service

import "errors"

var (
	ErrEmptySubject     = errors.New("subject id is required")
	ErrInvalidWindow    = errors.New("window start must be before window end")
	ErrInvalidSentiment = errors.New("invalid sentiment label")
	ErrInvalidDomain    = errors.New("invalid domain")
	ErrNoStore          = errors.New("no analysis store configured")
)
