package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderNotPaid  = errors.New("order not paid")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

type Customer struct {
	Name    string
	Company string
	Email   string
	Phone   string
}

type Order struct {
	ID                string
	PackageSlug       string
	Customer          Customer
	Amount            decimal.Decimal
	Currency          string
	Status            Status
	ThankYouEmailSent bool
	Items             []Item
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Item is a line of a multi-package order.
type Item struct {
	PackageSlug string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Code is the activation code issued for one package of a paid order.
type Code struct {
	OrderID     string
	PackageSlug string
	Code        string
	CreatedAt   time.Time
}

// NewOrder snapshots the package price as the order amount.
func NewOrder(packageSlug string, c Customer, amount decimal.Decimal, currency string) Order {
	now := time.Now().UTC()
	return Order{
		ID:          uuid.NewString(),
		PackageSlug: packageSlug,
		Customer: Customer{
			Name:    strings.TrimSpace(c.Name),
			Company: strings.TrimSpace(c.Company),
			Email:   strings.TrimSpace(c.Email),
			Phone:   strings.TrimSpace(c.Phone),
		},
		Amount:    amount,
		Currency:  currency,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PackageSlugs returns the distinct packages of the order in line-item
// order, or the order's own package when it has no items.
func (o Order) PackageSlugs() []string {
	if len(o.Items) == 0 {
		if o.PackageSlug == "" {
			return nil
		}
		return []string{o.PackageSlug}
	}
	seen := make(map[string]struct{}, len(o.Items))
	out := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if it.PackageSlug == "" {
			continue
		}
		if _, ok := seen[it.PackageSlug]; ok {
			continue
		}
		seen[it.PackageSlug] = struct{}{}
		out = append(out, it.PackageSlug)
	}
	return out
}
