package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrPackageNotFound = errors.New("package not found")

// Package is a purchasable service package. Prices are MXN.
type Package struct {
	Slug             string          `json:"slug"`
	Name             string          `json:"name"`
	ShortDescription string          `json:"short_description"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	IsActive         bool            `json:"is_active"`
	DisplayOrder     int             `json:"display_order"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Currency is the only currency packages are priced in.
const Currency = "MXN"
