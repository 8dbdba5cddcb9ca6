package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"shelfcontrol/backend/models"
	"shelfcontrol/backend/repository"
	"shelfcontrol/backend/storage"
)

const (
	AccountConfirmationPhrase = "delete my account"
	DataConfirmationPhrase    = "I understand"
)

// Errors returned by the account actions. Their text is shown to the user as is.
var (
	ErrAccountNotLoggedIn     = errors.New("You must be logged in to delete your account.")
	ErrDataNotLoggedIn        = errors.New("You must be logged in to delete your data.")
	ErrAccountUnverified      = errors.New("Could not verify your account information.")
	ErrAccountConfirmation    = errors.New("Confirmation text does not match. Please type 'delete my account'.")
	ErrNoAccountIdentifier    = errors.New("Could not determine your account identifier.")
	ErrIdentifierMismatch     = errors.New("Username/email does not match.")
	ErrAccountDeleteFailed    = errors.New("An error occurred while deleting your account. Please try again.")
	ErrDataConfirmation       = errors.New("Confirmation text does not match. Please type 'I understand' exactly.")
	ErrDataDeleteFailed       = errors.New("An error occurred while deleting your data.")
	ErrUnexpectedActionFailed = errors.New("An unexpected error occurred. Please try again.")
)

type AccountStore interface {
	DeleteAccount(ctx context.Context, userID string) error
	DeleteDeadlines(ctx context.Context, userID string) error
	DeleteOwned(ctx context.Context, table repository.OwnedTable, userID string) error
}

type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

type AccountService struct {
	accounts AccountStore
	profiles ProfileLookup
	avatars  storage.Bucket
	logger   *zap.Logger
}

func NewAccountService(accounts AccountStore, profiles ProfileLookup, avatars storage.Bucket, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{accounts: accounts, profiles: profiles, avatars: avatars, logger: logger.Named("account")}
}

// DeleteAccount removes the caller's account after checking the typed phrase
// and their username or email. tokenEmail is the email carried by the access
// token, used when the profile has neither.
func (s *AccountService) DeleteAccount(ctx context.Context, userID, tokenEmail, identifier, confirmationText string) error {
	if userID == "" {
		return ErrAccountNotLoggedIn
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		return ErrAccountUnverified
	}

	if strings.TrimSpace(confirmationText) != AccountConfirmationPhrase {
		return ErrAccountConfirmation
	}

	expected := firstNonEmpty(deref(profile.Username), deref(profile.Email), tokenEmail)
	if expected == "" {
		return ErrNoAccountIdentifier
	}
	if strings.TrimSpace(identifier) != expected {
		return ErrIdentifierMismatch
	}

	if err := s.accounts.DeleteAccount(ctx, userID); err != nil {
		s.logger.Error("error deleting user", zap.String("user_id", userID), zap.Error(err))
		return ErrAccountDeleteFailed
	}

	if key := deref(profile.AvatarURL); key != "" && s.avatars != nil {
		if err := s.avatars.Remove(ctx, key); err != nil {
			s.logger.Warn("remove avatar", zap.String("user_id", userID), zap.Error(err))
		}
	}

	s.logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}

// DeleteUserData clears everything the user has tracked but keeps the account.
// Deadlines go first; the remaining tables are best effort.
func (s *AccountService) DeleteUserData(ctx context.Context, userID, confirmationText string) error {
	if userID == "" {
		return ErrDataNotLoggedIn
	}
	if confirmationText != DataConfirmationPhrase {
		return ErrDataConfirmation
	}

	if err := s.accounts.DeleteDeadlines(ctx, userID); err != nil {
		s.logger.Error("error deleting deadlines", zap.String("user_id", userID), zap.Error(err))
		return ErrDataDeleteFailed
	}

	for _, table := range repository.UserDataTables {
		if err := s.accounts.DeleteOwned(ctx, table, userID); err != nil {
			s.logger.Error("error deleting "+table.Name, zap.String("user_id", userID), zap.Error(err))
		}
	}

	s.logger.Info("user data deleted", zap.String("user_id", userID))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
