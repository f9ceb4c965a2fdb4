package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/altiq/storefront/internal/catalog/domain"
)

type Service struct {
	repo PackageRepository
}

func NewService(repo PackageRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Package, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) GetActive(ctx context.Context, slug string) (domain.Package, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.Package{}, domain.ErrPackageNotFound
	}
	return s.repo.GetActive(ctx, slug)
}

// EnsureDefaults upserts the canonical packages; safe to run repeatedly.
func (s *Service) EnsureDefaults(ctx context.Context, testPrices bool) error {
	for _, p := range domain.DefaultPackages(testPrices) {
		if err := s.repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert package %s: %w", p.Slug, err)
		}
	}
	return nil
}
