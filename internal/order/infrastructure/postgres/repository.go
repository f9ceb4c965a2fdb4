package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altiq/storefront/internal/order/application"
	"github.com/altiq/storefront/internal/order/domain"
	payment "github.com/altiq/storefront/internal/payment/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) CreateWithPayment(ctx context.Context, o domain.Order, p payment.Payment) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, package_slug, customer_name, company_name, email, phone, amount, currency, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.PackageSlug, o.Customer.Name, o.Customer.Company, o.Customer.Email, o.Customer.Phone,
		o.Amount, o.Currency, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(o.Items) > 0 {
		batch := &pgx.Batch{}
		for _, item := range o.Items {
			batch.Queue(`INSERT INTO order_items (order_id, package_slug, quantity, unit_price) VALUES ($1,$2,$3,$4)`,
				o.ID, item.PackageSlug, item.Quantity, item.UnitPrice)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `INSERT INTO payments (id, order_id, method, status, amount, currency, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.OrderID, p.Method, p.Status, p.Amount, p.Currency, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *Repository) MarkPaymentPending(ctx context.Context, paymentID, providerID string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE payments SET status = $1, provider_payment_id = $2, updated_at = now() WHERE id = $3`,
		payment.StatusPending, providerID, paymentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return payment.ErrPaymentNotFound
	}
	return nil
}

func (r *Repository) MarkCheckoutFailed(ctx context.Context, orderID, paymentID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `UPDATE payments SET status = $1, updated_at = now() WHERE id = $2`, payment.StatusFailed, paymentID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`, domain.StatusFailed, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const orderColumns = `id, package_slug, customer_name, company_name, email, phone, amount, currency, status, thank_you_email_sent, created_at, updated_at`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.PackageSlug, &o.Customer.Name, &o.Customer.Company, &o.Customer.Email, &o.Customer.Phone,
		&o.Amount, &o.Currency, &o.Status, &o.ThankYouEmailSent, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, err
}

func loadItems(ctx context.Context, q querier, o *domain.Order) error {
	rows, err := q.Query(ctx, `SELECT package_slug, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.PackageSlug, &it.Quantity, &it.UnitPrice); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return domain.Order{}, err
	}
	if err := loadItems(ctx, r.pool, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// Codes lists the codes issued for an order.
func (r *Repository) Codes(ctx context.Context, orderID string) ([]domain.Code, error) {
	rows, err := r.pool.Query(ctx, `SELECT order_id, package_slug, code, created_at FROM order_codes WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Code
	for rows.Next() {
		var c domain.Code
		if err := rows.Scan(&c.OrderID, &c.PackageSlug, &c.Code, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) WithLockedOrder(ctx context.Context, orderID string, fn func(ctx context.Context, o domain.Order, tx application.FulfillmentTx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
	if err != nil {
		return err
	}
	if err := loadItems(ctx, tx, &o); err != nil {
		return err
	}

	if err := fn(ctx, o, &fulfillmentTx{tx: tx, orderID: o.ID}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type fulfillmentTx struct {
	tx      pgx.Tx
	orderID string
}

func (f *fulfillmentTx) PackageNames(ctx context.Context, slugs []string) (map[string]string, error) {
	rows, err := f.tx.Query(ctx, `SELECT slug, name FROM service_packages WHERE slug = ANY($1)`, slugs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string, len(slugs))
	for rows.Next() {
		var slug, name string
		if err := rows.Scan(&slug, &name); err != nil {
			return nil, err
		}
		out[slug] = name
	}
	return out, rows.Err()
}

func (f *fulfillmentTx) GetOrCreateCode(ctx context.Context, packageSlug, candidate string) (domain.Code, error) {
	_, err := f.tx.Exec(ctx, `INSERT INTO order_codes (order_id, package_slug, code) VALUES ($1,$2,$3)
		ON CONFLICT (order_id, package_slug) DO NOTHING`, f.orderID, packageSlug, candidate)
	if err != nil {
		return domain.Code{}, err
	}
	c := domain.Code{OrderID: f.orderID, PackageSlug: packageSlug}
	err = f.tx.QueryRow(ctx, `SELECT code, created_at FROM order_codes WHERE order_id = $1 AND package_slug = $2`,
		f.orderID, packageSlug).Scan(&c.Code, &c.CreatedAt)
	return c, err
}

func (f *fulfillmentTx) MarkThankYouSent(ctx context.Context) error {
	_, err := f.tx.Exec(ctx, `UPDATE orders SET thank_you_email_sent = TRUE, updated_at = now() WHERE id = $1`, f.orderID)
	return err
}
