package services

import (
	"context"
	"errors"
	"net/mail"
	"slices"
	"strings"

	"go.uber.org/zap"

	"shelfcontrol/backend/models"
)

var (
	ErrWaitlistEmail     = errors.New("A valid email address is required")
	ErrWaitlistBookCount = errors.New("Unknown book count option")
)

type WaitlistStore interface {
	Add(ctx context.Context, entry *models.WaitlistEntry) error
}

type WaitlistSignup struct {
	Email     string `json:"email"`
	Challenge string `json:"challenge"`
	BookCount string `json:"book_count"`
}

type WaitlistService struct {
	store  WaitlistStore
	logger *zap.Logger
}

func NewWaitlistService(store WaitlistStore, logger *zap.Logger) *WaitlistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaitlistService{store: store, logger: logger.Named("waitlist")}
}

// Join records a signup. Signing up twice with the same email succeeds.
func (s *WaitlistService) Join(ctx context.Context, in WaitlistSignup) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return ErrWaitlistEmail
	}

	bookCount := strings.TrimSpace(in.BookCount)
	if !slices.Contains(models.WaitlistBookCounts, bookCount) {
		return ErrWaitlistBookCount
	}

	entry := &models.WaitlistEntry{
		Email:     email,
		Challenge: strings.TrimSpace(in.Challenge),
		BookCount: bookCount,
	}
	if err := s.store.Add(ctx, entry); err != nil {
		return err
	}
	s.logger.Info("waitlist signup", zap.String("book_count", bookCount))
	return nil
}
