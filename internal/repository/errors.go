package repository

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Common repository errors
var (
	// ErrAssignmentNotFound is returned when an assignment does not exist
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrDuplicateSlot is returned when (project, foreman, date) is already taken
	ErrDuplicateSlot = errors.New("assignment slot already taken")

	// ErrProjectNotFound is returned when a project does not exist
	ErrProjectNotFound = errors.New("project not found")

	// ErrWorkerNotFound is returned when a worker does not exist
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrVehicleNotFound is returned when a vehicle does not exist
	ErrVehicleNotFound = errors.New("vehicle not found")
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
