package repository

import (
	"context"
	"fmt"
	"time"

	"shelfcontrol/backend/models"

	"gorm.io/gorm"
)

// AnalyticsRepository reads the raw rows the dashboard aggregates.
type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) Activities(ctx context.Context, scope Scope) ([]models.UserActivity, error) {
	return r.activities(ctx, scope, time.Time{})
}

// ActivitiesSince returns activities created at or after since.
func (r *AnalyticsRepository) ActivitiesSince(ctx context.Context, scope Scope, since time.Time) ([]models.UserActivity, error) {
	return r.activities(ctx, scope, since)
}

func (r *AnalyticsRepository) activities(ctx context.Context, scope Scope, since time.Time) ([]models.UserActivity, error) {
	q := scope.apply(r.db.WithContext(ctx).Model(&models.UserActivity{}), "user_id")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}

	var activities []models.UserActivity
	if err := q.Order("created_at ASC").Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("fetch activities: %w", err)
	}
	return activities, nil
}

func (r *AnalyticsRepository) Searches(ctx context.Context, scope Scope) ([]models.UserSearch, error) {
	q := scope.apply(r.db.WithContext(ctx).Model(&models.UserSearch{}), "user_id")

	var searches []models.UserSearch
	if err := q.Order("created_at ASC").Find(&searches).Error; err != nil {
		return nil, fmt.Errorf("fetch searches: %w", err)
	}
	return searches, nil
}

func (r *AnalyticsRepository) Deadlines(ctx context.Context, scope Scope) ([]models.Deadline, error) {
	q := scope.apply(r.db.WithContext(ctx).Model(&models.Deadline{}), "user_id")

	var deadlines []models.Deadline
	if err := q.Order("created_at ASC").Find(&deadlines).Error; err != nil {
		return nil, fmt.Errorf("fetch deadlines: %w", err)
	}
	return deadlines, nil
}

// Statuses returns the full status history of the deadlines in scope.
func (r *AnalyticsRepository) Statuses(ctx context.Context, scope Scope) ([]models.DeadlineStatus, error) {
	owned := scope.apply(r.db.Model(&models.Deadline{}).Select("id"), "user_id")

	var statuses []models.DeadlineStatus
	err := r.db.WithContext(ctx).
		Where("deadline_id IN (?)", owned).
		Order("deadline_id ASC").Order("updated_at ASC").Order("id ASC").
		Find(&statuses).Error
	if err != nil {
		return nil, fmt.Errorf("fetch deadline statuses: %w", err)
	}
	return statuses, nil
}

// Books loads books by id.
func (r *AnalyticsRepository) Books(ctx context.Context, ids []string) ([]models.Book, error) {
	if len(ids) == 0 {
		return []models.Book{}, nil
	}
	var books []models.Book
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, fmt.Errorf("fetch books: %w", err)
	}
	return books, nil
}

// ProgressBetween returns progress rows created in [from, to), each joined with
// the owner of its deadline.
func (r *AnalyticsRepository) ProgressBetween(ctx context.Context, scope Scope, from, to time.Time) ([]models.ProgressRecord, error) {
	q := r.progress(ctx, scope).
		Where("deadline_progress.created_at >= ? AND deadline_progress.created_at < ?", from.UTC(), to.UTC())

	var records []models.ProgressRecord
	if err := q.Scan(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch progress: %w", err)
	}
	return records, nil
}

// ProgressBefore returns the history of the given deadlines before a point in
// time, used to compute baselines for a window.
func (r *AnalyticsRepository) ProgressBefore(ctx context.Context, deadlineIDs []string, before time.Time) ([]models.ProgressRecord, error) {
	if len(deadlineIDs) == 0 {
		return []models.ProgressRecord{}, nil
	}
	q := r.progress(ctx, Scope{}).
		Where("deadline_progress.deadline_id IN ?", deadlineIDs).
		Where("deadline_progress.created_at < ?", before.UTC())

	var records []models.ProgressRecord
	if err := q.Scan(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch progress history: %w", err)
	}
	return records, nil
}

func (r *AnalyticsRepository) progress(ctx context.Context, scope Scope) *gorm.DB {
	q := r.db.WithContext(ctx).
		Table("deadline_progress").
		Select("deadline_progress.deadline_id, deadlines.user_id, deadline_progress.current_progress, " +
			"deadline_progress.ignore_in_calcs, deadline_progress.created_at").
		Joins("JOIN deadlines ON deadlines.id = deadline_progress.deadline_id")
	return scope.apply(q, "deadlines.user_id").
		Order("deadline_progress.deadline_id ASC").
		Order("deadline_progress.created_at ASC")
}
