package models

import "time"

// ReaderRankSnapshot stores one user's position in a day's top-readers list.
// RankDate is the local date as YYYY-MM-DD.
type ReaderRankSnapshot struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RankDate  string    `gorm:"size:10;not null;uniqueIndex:idx_reader_rank_date_user" json:"rank_date"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_reader_rank_date_user" json:"user_id"`
	Rank      int       `gorm:"not null" json:"rank"`
	PagesRead int       `gorm:"not null" json:"pages_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReaderRankSnapshot) TableName() string {
	return "reader_rank_snapshots"
}

// AllTables lists every model in migration order.
func AllTables() []interface{} {
	return []interface{}{
		&Profile{},
		&Book{},
		&Deadline{},
		&DeadlineStatus{},
		&DeadlineProgress{},
		&UserActivity{},
		&UserSearch{},
		&Tag{},
		&Hashtag{},
		&DisclosureTemplate{},
		&CsvExportLog{},
		&WaitlistEntry{},
		&ReaderRankSnapshot{},
	}
}
