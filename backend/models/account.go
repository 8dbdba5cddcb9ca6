package models

import "time"

// User-owned rows that are not reached by the deadlines cascade.

type Tag struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"type:uuid;index;not null"`
	Name      string
	CreatedAt time.Time
}

func (Tag) TableName() string {
	return "tags"
}

type Hashtag struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"type:uuid;index;not null"`
	Name      string
	CreatedAt time.Time
}

func (Hashtag) TableName() string {
	return "hashtags"
}

type DisclosureTemplate struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"type:uuid;index;not null"`
	Name      string
	Body      string
	CreatedAt time.Time
}

func (DisclosureTemplate) TableName() string {
	return "disclosure_templates"
}

type CsvExportLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"type:uuid;index;not null"`
	RowCount  int
	CreatedAt time.Time
}

func (CsvExportLog) TableName() string {
	return "csv_export_logs"
}
