// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"socialhub/internal/database"
	"socialhub/internal/models"

	"gorm.io/gorm"
)

// Upper bound on rows any list query returns.
const maxListLimit = 100

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND error and anything
// else to an internal error.
func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// wrapError passes AppErrors through and wraps anything else as internal.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; sqlite reports "UNIQUE constraint failed".
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching q anywhere. Wildcards in q
// match literally.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// likeClause folds both sides with the database's LOWER so column and
// pattern use the same case mapping. Works on postgres and sqlite.
func likeClause(col string) string {
	return "LOWER(" + col + `) LIKE LOWER(?) ESCAPE '\'`
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
