package server

import (
	"database/sql"

	"github.com/tunebridge/backend/convert"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db        *sql.DB
	converter *convert.Converter
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(db *sql.DB, cv *convert.Converter) *Handlers {
	return &Handlers{db: db, converter: cv}
}
