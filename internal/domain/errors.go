package domain

import "errors"

var (
	ErrUnauthenticated   = errors.New("no authenticated identity")
	ErrInvalidEntityID   = errors.New("entity id is required")
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrInvalidTarget     = errors.New("invalid escalation target")
	ErrInvalidStatus     = errors.New("invalid alert status")
	ErrInvalidAlert      = errors.New("invalid alert")
	ErrNotFound          = errors.New("not found")
)
