package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewOrder(t *testing.T) {
	o := NewOrder("pilot-line-mx", Customer{Name: " Ana ", Email: " ana@example.com "}, decimal.NewFromInt(15000), "MXN")
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "Ana", o.Customer.Name)
	assert.Equal(t, "ana@example.com", o.Customer.Email)
	assert.True(t, o.Amount.Equal(decimal.NewFromInt(15000)))
	assert.False(t, o.ThankYouEmailSent)
}

func TestPackageSlugs(t *testing.T) {
	o := Order{PackageSlug: "basic"}
	assert.Equal(t, []string{"basic"}, o.PackageSlugs())

	o.Items = []Item{{PackageSlug: "medium"}, {PackageSlug: "master"}, {PackageSlug: "medium"}}
	assert.Equal(t, []string{"medium", "master"}, o.PackageSlugs())

	assert.Empty(t, Order{}.PackageSlugs())
}
