package repository

import (
	"context"
	"fmt"

	"shelfcontrol/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WaitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// Add stores a signup. A repeated email is a no-op.
func (r *WaitlistRepository) Add(ctx context.Context, entry *models.WaitlistEntry) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(entry).Error
	if err != nil {
		return fmt.Errorf("add waitlist entry: %w", err)
	}
	return nil
}
