package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/altiq/storefront/internal/contact/domain"
	"github.com/altiq/storefront/pkg/validation"
)

type Repository interface {
	SaveQuote(ctx context.Context, q domain.QuoteRequest) (int64, error)
	SaveMeeting(ctx context.Context, m domain.MeetingRequest) (int64, error)
}

type QuoteForm struct {
	FullName         string `form:"full_name" validate:"required,max=150"`
	CompanyName      string `form:"company_name" validate:"max=180"`
	Email            string `form:"email" validate:"required,email,max=254"`
	Phone            string `form:"phone" validate:"max=50"`
	Industry         string `form:"industry" validate:"max=150"`
	Location         string `form:"location" validate:"max=150"`
	CurrentChallenge string `form:"current_challenge" validate:"required"`
	DesiredOutcome   string `form:"desired_outcome"`
}

type MeetingForm struct {
	FullName           string `form:"full_name" validate:"required,max=150"`
	CompanyName        string `form:"company_name" validate:"max=180"`
	Email              string `form:"email" validate:"required,email,max=254"`
	Phone              string `form:"phone" validate:"max=50"`
	MeetingType        string `form:"meeting_type" validate:"omitempty,oneof=remote on_site"`
	PreferredDate      string `form:"preferred_date" validate:"omitempty,datetime=2006-01-02"`
	PreferredTimeRange string `form:"preferred_time_range" validate:"max=120"`
	Notes              string `form:"notes"`
}

type Service struct {
	log      *slog.Logger
	repo     Repository
	validate *validation.Validator
}

func NewService(log *slog.Logger, repo Repository) *Service {
	return &Service{log: log, repo: repo, validate: validation.New()}
}

// SubmitQuote validates f and stores it. Validation failures are *validation.Error.
func (s *Service) SubmitQuote(ctx context.Context, f QuoteForm) (domain.QuoteRequest, error) {
	trimAll(&f.FullName, &f.CompanyName, &f.Email, &f.Phone, &f.Industry, &f.Location, &f.CurrentChallenge, &f.DesiredOutcome)
	if err := s.validate.Struct(f); err != nil {
		return domain.QuoteRequest{}, err
	}
	q := domain.QuoteRequest{
		FullName:         f.FullName,
		CompanyName:      f.CompanyName,
		Email:            f.Email,
		Phone:            f.Phone,
		Industry:         f.Industry,
		Location:         f.Location,
		CurrentChallenge: f.CurrentChallenge,
		DesiredOutcome:   f.DesiredOutcome,
		CreatedAt:        time.Now().UTC(),
	}
	id, err := s.repo.SaveQuote(ctx, q)
	if err != nil {
		return domain.QuoteRequest{}, fmt.Errorf("save quote: %w", err)
	}
	q.ID = id
	s.log.Info("quote request received", "id", id, "company", q.CompanyName)
	return q, nil
}

// SubmitMeeting validates f and stores it; meeting type defaults to remote.
func (s *Service) SubmitMeeting(ctx context.Context, f MeetingForm) (domain.MeetingRequest, error) {
	trimAll(&f.FullName, &f.CompanyName, &f.Email, &f.Phone, &f.MeetingType, &f.PreferredDate, &f.PreferredTimeRange, &f.Notes)
	if err := s.validate.Struct(f); err != nil {
		return domain.MeetingRequest{}, err
	}
	m := domain.MeetingRequest{
		FullName:           f.FullName,
		CompanyName:        f.CompanyName,
		Email:              f.Email,
		Phone:              f.Phone,
		MeetingType:        domain.MeetingType(f.MeetingType),
		PreferredTimeRange: f.PreferredTimeRange,
		Notes:              f.Notes,
		CreatedAt:          time.Now().UTC(),
	}
	if m.MeetingType == "" {
		m.MeetingType = domain.MeetingRemote
	}
	if f.PreferredDate != "" {
		d, err := time.Parse(time.DateOnly, f.PreferredDate)
		if err != nil {
			return domain.MeetingRequest{}, &validation.Error{Fields: map[string]string{"preferred_date": "Enter a valid date."}}
		}
		m.PreferredDate = &d
	}
	id, err := s.repo.SaveMeeting(ctx, m)
	if err != nil {
		return domain.MeetingRequest{}, fmt.Errorf("save meeting: %w", err)
	}
	m.ID = id
	s.log.Info("meeting request received", "id", id, "type", m.MeetingType)
	return m, nil
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
