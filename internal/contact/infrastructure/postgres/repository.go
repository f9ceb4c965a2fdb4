package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altiq/storefront/internal/contact/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) SaveQuote(ctx context.Context, q domain.QuoteRequest) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO quote_requests
		(full_name, company_name, email, phone, industry, location, current_challenge, desired_outcome, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		q.FullName, q.CompanyName, q.Email, q.Phone, q.Industry, q.Location, q.CurrentChallenge, q.DesiredOutcome, q.CreatedAt,
	).Scan(&id)
	return id, err
}

func (r *Repository) SaveMeeting(ctx context.Context, m domain.MeetingRequest) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO meeting_requests
		(full_name, company_name, email, phone, meeting_type, preferred_date, preferred_time_range, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		m.FullName, m.CompanyName, m.Email, m.Phone, m.MeetingType, m.PreferredDate, m.PreferredTimeRange, m.Notes, m.CreatedAt,
	).Scan(&id)
	return id, err
}
