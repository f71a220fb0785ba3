package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storeflow/storefront/internal/notification/domain"
	"github.com/storeflow/storefront/pkg/apperr"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// InitSchema owns the notifications table. The fulfillment repository
// inserts into it inside the order transactions; this repository only reads
// and marks read.
func (r *Repository) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		order_id UUID NOT NULL,
		message TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS notifications_user_created_idx ON notifications (user_id, created_at DESC)`)
	return err
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, order_id, message, is_read, created_at
		FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.OrderID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (domain.Notification, error) {
	var n domain.Notification
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, order_id, message, is_read, created_at
		FROM notifications WHERE id=$1`, id).
		Scan(&n.ID, &n.UserID, &n.OrderID, &n.Message, &n.IsRead, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Notification{}, apperr.NotFound("notification not found")
	}
	return n, err
}

func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) (domain.Notification, error) {
	var n domain.Notification
	err := r.pool.QueryRow(ctx, `UPDATE notifications SET is_read=TRUE WHERE id=$1
		RETURNING id, user_id, order_id, message, is_read, created_at`, id).
		Scan(&n.ID, &n.UserID, &n.OrderID, &n.Message, &n.IsRead, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Notification{}, apperr.NotFound("notification not found")
	}
	return n, err
}
