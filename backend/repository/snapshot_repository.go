package repository

import (
	"context"
	"fmt"

	"shelfcontrol/backend/models"

	"gorm.io/gorm"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// ReplaceDay swaps the stored ranking for rankDate with rows.
func (r *SnapshotRepository) ReplaceDay(ctx context.Context, rankDate string, rows []models.ReaderRankSnapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rank_date = ?", rankDate).Delete(&models.ReaderRankSnapshot{}).Error; err != nil {
			return fmt.Errorf("clear snapshot %s: %w", rankDate, err)
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].RankDate = rankDate
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("store snapshot %s: %w", rankDate, err)
		}
		return nil
	})
}

// Since returns snapshots on or after fromDate (YYYY-MM-DD), newest day first.
func (r *SnapshotRepository) Since(ctx context.Context, fromDate string) ([]models.ReaderRankSnapshot, error) {
	var rows []models.ReaderRankSnapshot
	err := r.db.WithContext(ctx).
		Where("rank_date >= ?", fromDate).
		Order("rank_date DESC").Order("rank ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch snapshots: %w", err)
	}
	return rows, nil
}
