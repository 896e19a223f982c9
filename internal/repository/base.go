// Package repository implements the data access layer for the application.
package repository

import (
	"errors"

	"warbler/internal/database"
	"warbler/internal/models"

	"gorm.io/gorm"
)

// DefaultListLimit caps list queries (timelines, profiles, likes).
const DefaultListLimit = 100

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}

// mapError converts gorm and driver errors into AppErrors.
func mapError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	if database.IsConstraintViolation(err) {
		return models.NewIntegrityError(err)
	}
	return models.NewInternalError(err)
}

// idSet collects ids into a membership map.
func idSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
