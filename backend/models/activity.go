package models

import "time"

type UserActivity struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"type:uuid;index;not null" json:"user_id"`
	ActivityType string    `gorm:"not null" json:"activity_type"`
	CreatedAt    time.Time `json:"created_at"`
}

func (UserActivity) TableName() string {
	return "user_activities"
}

type UserSearch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"user_id"`
	Query     string    `gorm:"not null" json:"query"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserSearch) TableName() string {
	return "user_searches"
}
