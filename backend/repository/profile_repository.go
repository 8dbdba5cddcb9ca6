package repository

import (
	"context"
	"fmt"
	"time"

	"shelfcontrol/backend/models"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// GetByID returns ErrNotFound when the user has no profile row.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

// UpdateNames writes the editable name fields. Nil clears a column.
func (r *ProfileRepository) UpdateNames(ctx context.Context, id string, firstName, lastName, username *string) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
		"username":   username,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAvatar stores the avatar object key, or clears it when key is nil.
func (r *ProfileRepository) SetAvatar(ctx context.Context, id string, key *string) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(map[string]interface{}{
		"avatar_url": key,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("set avatar: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UsernameTaken reports whether another profile already uses username.
func (r *ProfileRepository) UsernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

// ListUsers returns every profile except the excluded ids, ordered by email.
func (r *ProfileRepository) ListUsers(ctx context.Context, exclude []string) ([]models.UserInfo, error) {
	q := Scope{ExcludeIDs: exclude}.apply(r.db.WithContext(ctx).Model(&models.Profile{}), "id")

	var profiles []models.Profile
	if err := q.Order("email ASC").Order("id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]models.UserInfo, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, p.Info())
	}
	return users, nil
}

// Find loads profiles by id. Unknown ids are skipped.
func (r *ProfileRepository) Find(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	return profiles, nil
}

// IsAdmin reports whether the profile carries the admin role.
func (r *ProfileRepository) IsAdmin(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND role = ?", id, models.RoleAdmin).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return n > 0, nil
}

// CreatedSince returns profiles created at or after since.
func (r *ProfileRepository) CreatedSince(ctx context.Context, scope Scope, since time.Time) ([]models.Profile, error) {
	q := scope.apply(r.db.WithContext(ctx).Model(&models.Profile{}), "id")

	var profiles []models.Profile
	if err := q.Where("created_at >= ?", since.UTC()).Order("created_at ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("profiles created since: %w", err)
	}
	return profiles, nil
}
