package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// ErrNotificationNotFound is returned when the notification doesn't exist
// or belongs to another account.
var ErrNotificationNotFound = errors.New("notification not found")

var errInternal = errors.New("internal error")

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Notification, error)
	UnreadCount(ctx context.Context, accountID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, accountID uuid.UUID) error
	MarkAllRead(ctx context.Context, accountID uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates notification repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO notifications (id, account_id, kind, title, message, link, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)
	`, n.ID, n.AccountID, n.Kind, n.Title, n.Message, n.Link, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: create notification", errInternal)
	}
	return nil
}

func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Notification, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	items := make([]Notification, 0)
	err := r.db.SelectContext(ctx2, &items, `
		SELECT id, account_id, kind, title, message, link, read, created_at
		FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications", errInternal)
	}
	return items, nil
}

func (r *repository) UnreadCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	err := r.db.GetContext(ctx2, &count, `
		SELECT count(*) FROM notifications WHERE account_id = $1 AND read = false
	`, accountID)
	if err != nil {
		return 0, fmt.Errorf("%w: unread count", errInternal)
	}
	return count, nil
}

func (r *repository) MarkRead(ctx context.Context, id, accountID uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE notifications SET read = true WHERE id = $1 AND account_id = $2
	`, id, accountID)
	if err != nil {
		return fmt.Errorf("%w: mark read", errInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", errInternal)
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *repository) MarkAllRead(ctx context.Context, accountID uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		UPDATE notifications SET read = true WHERE account_id = $1 AND read = false
	`, accountID)
	if err != nil {
		return fmt.Errorf("%w: mark all read", errInternal)
	}
	return nil
}
