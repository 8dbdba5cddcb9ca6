// Package rpc calls the Postgres reporting functions through sqlx, sharing the
// connection pool gorm opened.
package rpc

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"shelfcontrol/backend/analytics"
)

//go:embed functions.sql
var functionsSQL string

type Client struct {
	db *sqlx.DB
}

func NewClient(db *sqlx.DB) *Client {
	return &Client{db: db}
}

// FromGorm wraps the pool behind a gorm handle.
func FromGorm(db *gorm.DB) (*Client, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	return NewClient(sqlx.NewDb(sqlDB, "postgres")), nil
}

// Install creates or replaces the reporting functions.
func (c *Client) Install(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, functionsSQL); err != nil {
		return fmt.Errorf("install reporting functions: %w", err)
	}
	return nil
}

type topReaderRow struct {
	UserID        string        `db:"user_id"`
	PagesRead     int           `db:"pages_read"`
	Rank          int           `db:"rank"`
	YesterdayRank sql.NullInt64 `db:"yesterday_rank"`
}

// TopPagesReadToday returns today's ranking for a fixed UTC offset (minutes
// east of UTC). Profile fields are left for the caller to fill.
func (c *Client) TopPagesReadToday(ctx context.Context, limit, utcOffsetMinutes int, exclude []string) ([]analytics.TopReader, error) {
	var rows []topReaderRow
	err := c.db.SelectContext(ctx, &rows,
		`SELECT user_id, pages_read, rank, yesterday_rank
		   FROM get_top_pages_read_today($1, $2, $3::uuid[])`,
		limit, utcOffsetMinutes, pq.Array(exclude))
	if err != nil {
		return nil, fmt.Errorf("get_top_pages_read_today: %w", err)
	}

	readers := make([]analytics.TopReader, 0, len(rows))
	for _, r := range rows {
		reader := analytics.TopReader{UserID: r.UserID, PagesRead: r.PagesRead}
		if r.YesterdayRank.Valid {
			rank := int(r.YesterdayRank.Int64)
			reader.YesterdayRank = &rank
		}
		readers = append(readers, reader)
	}
	return readers, nil
}

type statusCountRow struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

// DeadlineStatusCounts returns latest-status counts for the selected users (all
// users when userIDs is empty) in display order.
func (c *Client) DeadlineStatusCounts(ctx context.Context, userIDs, exclude []string) ([]analytics.StatusCount, error) {
	var rows []statusCountRow
	err := c.db.SelectContext(ctx, &rows,
		`SELECT status, count FROM get_deadline_status_counts($1::uuid[], $2::uuid[])`,
		pq.Array(userIDs), pq.Array(exclude))
	if err != nil {
		return nil, fmt.Errorf("get_deadline_status_counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] += r.Count
	}
	return analytics.OrderStatusCounts(counts), nil
}
