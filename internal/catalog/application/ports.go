package application

import (
	"context"

	"github.com/altiq/storefront/internal/catalog/domain"
)

type PackageRepository interface {
	ListActive(ctx context.Context) ([]domain.Package, error)
	// GetActive returns domain.ErrPackageNotFound for missing or inactive slugs.
	GetActive(ctx context.Context, slug string) (domain.Package, error)
	Upsert(ctx context.Context, p domain.Package) error
}
