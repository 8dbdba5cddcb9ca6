package repository

import (
	"context"
	"fmt"

	"shelfcontrol/backend/models"

	"gorm.io/gorm"
)

// OwnedTable is a user-owned table cleared by data deletion.
type OwnedTable struct {
	Name  string
	Model interface{}
}

// UserDataTables are cleared after the deadlines, in this order.
var UserDataTables = []OwnedTable{
	{Name: "hashtags", Model: &models.Hashtag{}},
	{Name: "tags", Model: &models.Tag{}},
	{Name: "disclosure_templates", Model: &models.DisclosureTemplate{}},
	{Name: "user_searches", Model: &models.UserSearch{}},
	{Name: "user_activities", Model: &models.UserActivity{}},
	{Name: "csv_export_logs", Model: &models.CsvExportLog{}},
}

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// DeleteDeadlines removes the user's deadlines with their status and progress
// history.
func (r *AccountRepository) DeleteDeadlines(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteDeadlines(tx, userID)
	})
}

// DeleteOwned clears one user-owned table.
func (r *AccountRepository) DeleteOwned(ctx context.Context, table OwnedTable, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(table.Model).Error; err != nil {
		return fmt.Errorf("delete %s: %w", table.Name, err)
	}
	return nil
}

// DeleteAccount removes the profile and everything the user owns in one
// transaction.
func (r *AccountRepository) DeleteAccount(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteDeadlines(tx, userID); err != nil {
			return err
		}
		for _, t := range UserDataTables {
			if err := tx.Where("user_id = ?", userID).Delete(t.Model).Error; err != nil {
				return fmt.Errorf("delete %s: %w", t.Name, err)
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.ReaderRankSnapshot{}).Error; err != nil {
			return fmt.Errorf("delete rank snapshots: %w", err)
		}

		res := tx.Where("id = ?", userID).Delete(&models.Profile{})
		if res.Error != nil {
			return fmt.Errorf("delete profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func deleteDeadlines(tx *gorm.DB, userID string) error {
	owned := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.Deadline{}).Select("id").Where("user_id = ?", userID)

	if err := tx.Where("deadline_id IN (?)", owned).Delete(&models.DeadlineStatus{}).Error; err != nil {
		return fmt.Errorf("delete deadline statuses: %w", err)
	}
	if err := tx.Where("deadline_id IN (?)", owned).Delete(&models.DeadlineProgress{}).Error; err != nil {
		return fmt.Errorf("delete deadline progress: %w", err)
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.Deadline{}).Error; err != nil {
		return fmt.Errorf("delete deadlines: %w", err)
	}
	return nil
}
