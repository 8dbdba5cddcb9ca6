package models

import "time"

type WaitlistEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Challenge string    `json:"challenge"`
	BookCount string    `json:"book_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

// WaitlistBookCounts are the accepted answers to "how many books are you juggling".
var WaitlistBookCounts = []string{"", "5-10", "11-20", "20+", "too-many"}
