package repository

import (
	"errors"
	"strings"

	"hbnb/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// conflictFor is the error reported when a unique constraint of kind fails.
func conflictFor(kind models.Kind) *models.AppError {
	switch kind {
	case models.KindUser:
		return models.NewConflictError("Email already registered")
	case models.KindReview:
		return models.NewConflictError("You have already reviewed this place")
	default:
		return models.NewConflictError(kind.Label() + " already exists")
	}
}

// isUniqueConstraintError reports whether err is a unique violation from
// PostgreSQL (SQLSTATE 23505) or SQLite.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func writeError(kind models.Kind, err error) error {
	if isUniqueConstraintError(err) {
		return conflictFor(kind)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
