package model

import (
	"time"

	"github.com/google/uuid"
)

// EditingPresence records that a session has an assignment open for editing.
// It is advisory and never persisted.
type EditingPresence struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	SessionID    string    `json:"session_id"`
	UserID       uuid.UUID `json:"user_id"`
	UserName     string    `json:"user_name"`
	StartedAt    time.Time `json:"started_at"`
}
