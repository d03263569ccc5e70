package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"performance_review_service/internal/domain/notification"
)

// Custom errors specific to notification repository
var ErrNotificationNotFound = fmt.Errorf("notification not found")

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `INSERT INTO notifications (user_id, type, title, message, link, is_read)
               VALUES ($1, $2, $3, $4, $5, FALSE)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, n.UserID, n.Type, n.Title, n.Message, n.Link).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) Exists(ctx context.Context, userID int64, typ notification.Type, link string, since time.Time) (bool, error) {
	query := `SELECT EXISTS (
                 SELECT 1 FROM notifications
                 WHERE user_id = $1 AND type = $2 AND link = $3 AND created_at >= $4
               )`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, typ, link, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking recent notification: %w", err)
	}
	return exists, nil
}

func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userID int64) ([]*notification.Notification, error) {
	query := `SELECT id, user_id, type, title, message, link, is_read, created_at
               FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications by user: %w", err)
	}
	defer rows.Close()

	notifications := make([]*notification.Notification, 0)
	for rows.Next() {
		n := notification.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading mark-read result: %w", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error purging old notifications: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading purge result: %w", err)
	}
	return deleted, nil
}
