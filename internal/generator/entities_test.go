package generator

import (
	"fmt"
	"strings"
	"testing"

	domain "github.com/aq2208/gorder-seed/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerGenerator_UniqueEmails(t *testing.T) {
	w := Window{Start: ts("2025-01-01 00:00:00"), End: ts("2025-01-31 00:00:00")}
	taken := map[string]struct{}{}

	first := NewCustomerGenerator(NewRand(7)).Generate(500, taken, w)
	require.Len(t, first, 500)
	assert.Empty(t, taken, "caller's set must not be modified")

	for _, c := range first {
		taken[c.Email] = struct{}{}
	}
	second := NewCustomerGenerator(NewRand(7)).Generate(500, taken, w)

	seen := map[string]struct{}{}
	for _, c := range append(first, second...) {
		_, dup := seen[c.Email]
		require.False(t, dup, "duplicate email %s", c.Email)
		seen[c.Email] = struct{}{}
	}
}

func TestCustomerGenerator_FieldsAndWindow(t *testing.T) {
	w := Window{Start: ts("2025-01-01 00:00:00"), End: ts("2025-01-31 00:00:00")}
	for _, c := range NewCustomerGenerator(NewRand(11)).Generate(100, nil, w) {
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Country)
		assert.Contains(t, c.Email, "@")
		assert.True(t, w.Contains(c.CreatedAt), "created_at %s outside window", c.CreatedAt)
		assert.Equal(t, c.CreatedAt.Format("2006-01-02"), c.SignupDate.Format("2006-01-02"))
	}
}

func TestCustomerGenerator_FallbackEmail(t *testing.T) {
	g := NewCustomerGenerator(NewRand(3))
	ref := NewRand(3)
	// replay the draws so every candidate the generator tries is already taken
	seen := map[string]struct{}{}
	for range emailAttempts {
		seen[lower(ref.fake.Email())] = struct{}{}
	}
	user := lower(ref.fake.Username())
	domainName := lower(ref.fake.DomainName())
	seen[fmt.Sprintf("%s%d@%s", user, emailAttempts+1, domainName)] = struct{}{}

	email := g.uniqueEmail(seen)
	assert.Equal(t, fmt.Sprintf("%s%d@%s", user, emailAttempts+2, domainName), email)
}

func TestProductGenerator(t *testing.T) {
	w := Window{Start: ts("2025-01-01 00:00:00"), End: ts("2025-01-31 00:00:00")}
	products := NewProductGenerator(NewRand(5)).Generate(1000, w)
	require.Len(t, products, 1000)

	categories := map[string]bool{}
	for _, c := range domain.Categories {
		categories[c] = true
	}
	lo, hi := decimal.RequireFromString("19.99"), decimal.RequireFromString("2999.99")
	for _, p := range products {
		assert.True(t, categories[p.Category], "unknown category %q", p.Category)
		assert.NotEmpty(t, p.Name)
		assert.NoError(t, p.Validate())
		assert.True(t, p.Price.GreaterThanOrEqual(lo) && p.Price.LessThanOrEqual(hi), "price %s", p.Price)
		assert.Equal(t, p.Price, p.Price.Round(2))
		assert.True(t, w.Contains(p.CreatedAt))
	}
}

func TestProductGenerator_PriceBandsByCategory(t *testing.T) {
	g := NewProductGenerator(NewRand(9))
	for range 200 {
		jewelry := g.price("Jewelry & Watches")
		assert.True(t, jewelry.LessThanOrEqual(decimal.RequireFromString("1999.99")))

		dress := g.price("Dresses")
		assert.True(t, dress.GreaterThanOrEqual(decimal.RequireFromString("29.99")))
		assert.True(t, dress.LessThanOrEqual(decimal.RequireFromString("1299.99")))
	}
}

func lower(s string) string { return strings.ToLower(s) }
