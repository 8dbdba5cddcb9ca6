package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FormatPhysical = "physical"
	FormatEBook    = "eBook"
	FormatAudio    = "audio"
	FormatUnknown  = "unknown"
)

const (
	StatusPending      = "pending"
	StatusReading      = "reading"
	StatusOverdue      = "overdue"
	StatusPaused       = "paused"
	StatusToReview     = "to_review"
	StatusComplete     = "complete"
	StatusRejected     = "rejected"
	StatusWithdrew     = "withdrew"
	StatusDidNotFinish = "did_not_finish"
	StatusUnknown      = "unknown"
)

// StatusOrder is the display order of deadline statuses.
var StatusOrder = []string{
	StatusOverdue,
	StatusPending,
	StatusReading,
	StatusPaused,
	StatusToReview,
	StatusComplete,
	StatusRejected,
	StatusWithdrew,
	StatusDidNotFinish,
}

// FormatOrder is the display order of book formats.
var FormatOrder = []string{FormatPhysical, FormatEBook, FormatAudio, FormatUnknown}

type Book struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	CoverImageURL *string   `json:"cover_image_url"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

type Deadline struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string    `gorm:"type:uuid;index;not null" json:"user_id"`
	BookID        *string   `gorm:"type:uuid;index" json:"book_id"`
	BookTitle     string    `json:"book_title"`
	Format        string    `json:"format"`
	TotalQuantity int       `json:"total_quantity"`
	DeadlineDate  time.Time `json:"deadline_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Deadline) TableName() string {
	return "deadlines"
}

func (d *Deadline) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DeadlineStatus is one entry of a deadline's status history.
type DeadlineStatus struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DeadlineID string    `gorm:"type:uuid;index;not null" json:"deadline_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (DeadlineStatus) TableName() string {
	return "deadline_status"
}

// DeadlineProgress is one entry of a deadline's progress history. Rows with
// IgnoreInCalcs are corrections and never count as pages read.
type DeadlineProgress struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	DeadlineID      string    `gorm:"type:uuid;index;not null" json:"deadline_id"`
	CurrentProgress int       `json:"current_progress"`
	IgnoreInCalcs   bool      `gorm:"not null;default:false" json:"ignore_in_calcs"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (DeadlineProgress) TableName() string {
	return "deadline_progress"
}

// ProgressRecord is a progress row joined with its deadline owner.
type ProgressRecord struct {
	DeadlineID      string    `json:"deadline_id"`
	UserID          string    `json:"user_id"`
	CurrentProgress int       `json:"current_progress"`
	IgnoreInCalcs   bool      `json:"ignore_in_calcs"`
	CreatedAt       time.Time `json:"created_at"`
}
