// Package repository holds the gorm queries behind every service. All reads
// are plain query-builder calls so the same code runs against Postgres and the
// in-memory sqlite used in tests.
package repository

import (
	"errors"

	"shelfcontrol/backend/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Scope narrows analytics reads to a user selection. An empty UserIDs means
// every user; ExcludeIDs (the configured test users) always applies.
type Scope struct {
	UserIDs    []string
	ExcludeIDs []string
}

func (s Scope) apply(q *gorm.DB, column string) *gorm.DB {
	if len(s.UserIDs) > 0 {
		q = q.Where(column+" IN ?", s.UserIDs)
	}
	if len(s.ExcludeIDs) > 0 {
		q = q.Where(column+" NOT IN ?", s.ExcludeIDs)
	}
	return q
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.AllTables()...)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
