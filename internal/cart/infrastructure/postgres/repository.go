package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storeflow/storefront/internal/cart/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS cart_items (
		user_id UUID NOT NULL,
		product_id UUID NOT NULL,
		quantity INT NOT NULL CHECK (quantity >= 1),
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, product_id)
	)`)
	return err
}

func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, quantity, updated_at FROM cart_items WHERE user_id=$1`, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	defer rows.Close()

	c := domain.Cart{UserID: userID}
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &c.UpdatedAt); err != nil {
			return domain.Cart{}, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

// Save replaces the stored cart with c in one transaction.
func (r *Repository) Save(ctx context.Context, c domain.Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, c.UserID); err != nil {
		return err
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, it := range c.Items {
		batch.Queue(`INSERT INTO cart_items (user_id, product_id, quantity, updated_at) VALUES ($1,$2,$3,$4)`,
			c.UserID, it.ProductID, it.Quantity, now)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}
