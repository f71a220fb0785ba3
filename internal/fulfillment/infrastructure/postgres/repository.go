package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/storeflow/storefront/internal/fulfillment/domain"
	notifdomain "github.com/storeflow/storefront/internal/notification/domain"
	"github.com/storeflow/storefront/pkg/apperr"
	"github.com/storeflow/storefront/pkg/tracing"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		ship_address TEXT NOT NULL,
		ship_city TEXT NOT NULL,
		ship_postal_code TEXT NOT NULL,
		ship_country TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		items_price NUMERIC(12,2) NOT NULL,
		tax_price NUMERIC(12,2) NOT NULL,
		shipping_price NUMERIC(12,2) NOT NULL,
		total_price NUMERIC(12,2) NOT NULL,
		status TEXT NOT NULL,
		payment_tx_id TEXT,
		payment_status TEXT,
		payment_update_time TEXT,
		payment_email TEXT,
		paid_at TIMESTAMPTZ,
		delivered_at TIMESTAMPTZ,
		version BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS orders_user_created_idx ON orders (user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS order_items (
		order_id UUID NOT NULL REFERENCES orders(id),
		product_id UUID NOT NULL,
		name TEXT NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL,
		quantity INT NOT NULL CHECK (quantity >= 1),
		PRIMARY KEY (order_id, product_id)
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id BIGSERIAL PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		type TEXT NOT NULL,
		payload JSONB NOT NULL,
		headers JSONB NOT NULL DEFAULT '{}',
		traceparent TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		relay_id TEXT,
		lease_until TIMESTAMPTZ,
		retry_count INT NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS outbox_pending_idx ON outbox (id) WHERE status = 'pending'`)
	return err
}

// Place commits the whole checkout as one transaction: per-item stock
// reservation against locked product rows, the immutable order snapshot, the
// "order placed" notification, and the OrderPlaced outbox event.
func (r *Repository) Place(ctx context.Context, o domain.Order, note string, eventType string, payload []byte) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, item := range o.Items {
		if err := reserveStock(ctx, tx, item); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `INSERT INTO orders (
			id, user_id, ship_address, ship_city, ship_postal_code, ship_country,
			payment_method, items_price, tax_price, shipping_price, total_price,
			status, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		o.ID, o.UserID,
		o.ShippingAddress.Address, o.ShippingAddress.City, o.ShippingAddress.PostalCode, o.ShippingAddress.Country,
		o.PaymentMethod,
		o.Breakdown.ItemsPrice, o.Breakdown.TaxPrice, o.Breakdown.ShippingPrice, o.Breakdown.TotalPrice,
		o.Status, o.Version, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, name, unit_price, quantity)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	if err = insertNotification(ctx, tx, o.UserID, o.ID, note); err != nil {
		return err
	}
	if err = insertOutbox(ctx, tx, o.ID, eventType, payload, tracing.Traceparent(ctx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// reserveStock locks the product row, verifies it still matches the frozen
// line item, and decrements stock. The row lock serializes concurrent
// checkouts of the same product, so the non-negative stock invariant holds.
func reserveStock(ctx context.Context, tx pgx.Tx, item domain.LineItem) error {
	var name string
	var price decimal.Decimal
	var available int
	err := tx.QueryRow(ctx,
		`SELECT name, price, count_in_stock FROM products WHERE id=$1 FOR UPDATE`, item.ProductID).
		Scan(&name, &price, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("product %s not found", item.ProductID)
	}
	if err != nil {
		return err
	}
	if available < item.Quantity {
		return apperr.InsufficientStock(name, item.Quantity, available)
	}
	if !price.Equal(item.UnitPrice) {
		return apperr.Validation("price of %s changed during checkout", name)
	}
	_, err = tx.Exec(ctx,
		`UPDATE products SET count_in_stock = count_in_stock - $2, updated_at = now() WHERE id=$1`,
		item.ProductID, item.Quantity)
	return err
}

// Update persists the order's mutable fields guarded by optimistic
// versioning, with the notification and outbox event in the same commit.
func (r *Repository) Update(ctx context.Context, o domain.Order, expectedVersion int64, note string, eventType string, payload []byte) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var txID, pStatus, pUpdate, pEmail *string
	if o.PaymentResult != nil {
		txID, pStatus = &o.PaymentResult.TransactionID, &o.PaymentResult.Status
		pUpdate, pEmail = &o.PaymentResult.UpdateTime, &o.PaymentResult.PayerEmail
	}

	ct, err := tx.Exec(ctx, `UPDATE orders SET
			status=$3, payment_tx_id=$4, payment_status=$5, payment_update_time=$6,
			payment_email=$7, paid_at=$8, delivered_at=$9, version=$10, updated_at=$11
		WHERE id=$1 AND version=$2`,
		o.ID, expectedVersion,
		o.Status, txID, pStatus, pUpdate, pEmail, o.PaidAt, o.DeliveredAt, o.Version, o.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, o.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("order not found")
		}
		return apperr.Conflict("order %s was modified concurrently", o.ID)
	}

	if err = insertNotification(ctx, tx, o.UserID, o.ID, note); err != nil {
		return err
	}
	if err = insertOutbox(ctx, tx, o.ID, eventType, payload, tracing.Traceparent(ctx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertNotification(ctx context.Context, tx pgx.Tx, userID, orderID uuid.UUID, message string) error {
	n := notifdomain.New(userID, orderID, message)
	_, err := tx.Exec(ctx, `INSERT INTO notifications (id, user_id, order_id, message, is_read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		n.ID, n.UserID, n.OrderID, n.Message, n.IsRead, n.CreatedAt)
	return err
}

func insertOutbox(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, eventType string, payload []byte, traceparent string) error {
	_, err := tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ('order',$1,$2,$3,'{}',$4,'pending')`,
		orderID.String(), eventType, payload, traceparent)
	return err
}

const orderCols = `id, user_id, ship_address, ship_city, ship_postal_code, ship_country,
	payment_method, items_price, tax_price, shipping_price, total_price,
	status, payment_tx_id, payment_status, payment_update_time, payment_email,
	paid_at, delivered_at, version, created_at, updated_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var txID, pStatus, pUpdate, pEmail *string
	err := row.Scan(&o.ID, &o.UserID,
		&o.ShippingAddress.Address, &o.ShippingAddress.City, &o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&o.PaymentMethod, &o.Breakdown.ItemsPrice, &o.Breakdown.TaxPrice, &o.Breakdown.ShippingPrice, &o.Breakdown.TotalPrice,
		&o.Status, &txID, &pStatus, &pUpdate, &pEmail,
		&o.PaidAt, &o.DeliveredAt, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, apperr.NotFound("order not found")
	}
	if err != nil {
		return domain.Order{}, err
	}
	if txID != nil {
		o.PaymentResult = &domain.PaymentResult{
			TransactionID: *txID,
			Status:        deref(pStatus),
			UpdateTime:    deref(pUpdate),
			PayerEmail:    deref(pEmail),
		}
	}
	return o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return domain.Order{}, err
	}
	items, err := r.loadItems(ctx, []uuid.UUID{id})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[id]
	return o, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `SELECT ` + orderCols + ` FROM orders ORDER BY created_at DESC`)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []uuid.UUID
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *Repository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.LineItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, name, unit_price, quantity FROM order_items WHERE order_id = ANY($1)`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.LineItem, len(orderIDs))
	for rows.Next() {
		var orderID uuid.UUID
		var item domain.LineItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], item)
	}
	return out, rows.Err()
}
