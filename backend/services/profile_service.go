package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"shelfcontrol/backend/models"
	"shelfcontrol/backend/storage"
)

const (
	// AvatarURLTTL is how long a signed avatar URL stays valid.
	AvatarURLTTL  = 90 * 24 * time.Hour
	MaxAvatarSize = 5 * 1024 * 1024
)

var (
	ErrAvatarTooLarge = errors.New("Avatar file size must be less than 5MB")
	ErrAvatarNotImage = errors.New("Avatar must be an image file")
	ErrUsernameTaken  = errors.New("Username already taken")
)

var extPattern = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateNames(ctx context.Context, id string, firstName, lastName, username *string) error
	SetAvatar(ctx context.Context, id string, key *string) error
	UsernameTaken(ctx context.Context, username, exceptID string) (bool, error)
}

// AvatarSigner produces the URL a client loads an avatar from.
type AvatarSigner interface {
	SignedURL(key string, ttl time.Duration) (string, error)
}

// ProfileView is a profile as returned to its owner.
type ProfileView struct {
	models.Profile
	AvatarSignedURL *string `json:"avatar_signed_url"`
}

type ProfileUpdate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Avatar is an uploaded image.
type Avatar struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ProfileService struct {
	profiles ProfileStore
	avatars  storage.Bucket
	signer   AvatarSigner
	logger   *zap.Logger
	now      func() time.Time
}

func NewProfileService(profiles ProfileStore, avatars storage.Bucket, signer AvatarSigner, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		profiles: profiles,
		avatars:  avatars,
		signer:   signer,
		logger:   logger.Named("profile"),
		now:      time.Now,
	}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileView, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{Profile: *profile}
	if key := deref(profile.AvatarURL); key != "" && s.signer != nil {
		u, err := s.signer.SignedURL(key, AvatarURLTTL)
		if err != nil {
			s.logger.Warn("sign avatar url", zap.String("user_id", userID), zap.Error(err))
		} else {
			view.AvatarSignedURL = &u
		}
	}
	return view, nil
}

// Update writes the name fields; blank values are stored as NULL.
func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileUpdate) (*ProfileView, error) {
	username := nullable(in.Username)
	if username != nil {
		taken, err := s.profiles.UsernameTaken(ctx, *username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
	}

	if err := s.profiles.UpdateNames(ctx, userID, nullable(in.FirstName), nullable(in.LastName), username); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// ValidateAvatar applies the upload limits: at most 5MB and an image type.
func ValidateAvatar(size int64, contentType string) error {
	if size > MaxAvatarSize {
		return ErrAvatarTooLarge
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return ErrAvatarNotImage
	}
	return nil
}

// AvatarKey names a new avatar object <userID>-<unix millis>.<ext>.
func AvatarKey(userID, filename, contentType string, now time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !extPattern.MatchString(ext) {
		ext = strings.ToLower(strings.TrimPrefix(contentType, "image/"))
		if i := strings.IndexAny(ext, "+;"); i >= 0 {
			ext = ext[:i]
		}
		if !extPattern.MatchString(ext) {
			ext = "img"
		}
	}
	return fmt.Sprintf("%s-%d.%s", userID, now.UnixMilli(), ext)
}

// UploadAvatar replaces the user's avatar.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, avatar Avatar) (*ProfileView, error) {
	if err := ValidateAvatar(avatar.Size, avatar.ContentType); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := AvatarKey(userID, avatar.Filename, avatar.ContentType, s.now())
	body := io.LimitReader(avatar.Body, MaxAvatarSize+1)
	if err := s.avatars.Put(ctx, key, body); err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.profiles.SetAvatar(ctx, userID, &key); err != nil {
		if rmErr := s.avatars.Remove(ctx, key); rmErr != nil {
			s.logger.Warn("remove orphaned avatar", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, err
	}

	if old := deref(profile.AvatarURL); old != "" && old != key {
		if err := s.avatars.Remove(ctx, old); err != nil {
			s.logger.Warn("remove old avatar", zap.String("key", old), zap.Error(err))
		}
	}
	return s.Get(ctx, userID)
}

// RemoveAvatar deletes the avatar object and clears the column.
func (s *ProfileService) RemoveAvatar(ctx context.Context, userID string) error {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	key := deref(profile.AvatarURL)
	if key == "" {
		return nil
	}
	if err := s.avatars.Remove(ctx, key); err != nil {
		s.logger.Warn("remove avatar", zap.String("key", key), zap.Error(err))
	}
	return s.profiles.SetAvatar(ctx, userID, nil)
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
