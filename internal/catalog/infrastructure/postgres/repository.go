package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altiq/storefront/internal/catalog/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const packageColumns = `slug, name, short_description, description, price, is_active, display_order, created_at, updated_at`

func scanPackage(row pgx.Row) (domain.Package, error) {
	var p domain.Package
	err := row.Scan(&p.Slug, &p.Name, &p.ShortDescription, &p.Description, &p.Price, &p.IsActive, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) ListActive(ctx context.Context) ([]domain.Package, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+packageColumns+` FROM service_packages WHERE is_active ORDER BY display_order, slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetActive(ctx context.Context, slug string) (domain.Package, error) {
	p, err := scanPackage(r.pool.QueryRow(ctx, `SELECT `+packageColumns+` FROM service_packages WHERE slug=$1 AND is_active`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Package{}, domain.ErrPackageNotFound
	}
	return p, err
}

func (r *Repository) Upsert(ctx context.Context, p domain.Package) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO service_packages (slug, name, short_description, description, price, is_active, display_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (slug) DO UPDATE SET
			name=$2, short_description=$3, description=$4, price=$5, is_active=$6, display_order=$7, updated_at=now()`,
		p.Slug, p.Name, p.ShortDescription, p.Description, p.Price, p.IsActive, p.DisplayOrder)
	return err
}
