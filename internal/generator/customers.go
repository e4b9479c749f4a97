package generator

import (
	"fmt"
	"strings"
	"time"

	domain "github.com/aq2208/gorder-seed/internal/entity"
)

const emailAttempts = 50

type CustomerGenerator struct {
	rnd *Rand
}

func NewCustomerGenerator(rnd *Rand) *CustomerGenerator {
	return &CustomerGenerator{rnd: rnd}
}

// Generate builds n customers stamped inside w. Emails are unique against taken
// (the persisted set) and against each other; taken itself is not modified.
func (g *CustomerGenerator) Generate(n int, taken map[string]struct{}, w Window) []domain.Customer {
	seen := make(map[string]struct{}, len(taken)+n)
	for e := range taken {
		seen[strings.ToLower(e)] = struct{}{}
	}

	out := make([]domain.Customer, 0, n)
	for range n {
		email := g.uniqueEmail(seen)
		seen[email] = struct{}{}

		createdAt := g.rnd.Timestamp(w.Start, w.End)
		out = append(out, domain.Customer{
			Name:       g.rnd.fake.Name(),
			Email:      email,
			Country:    g.rnd.fake.Country(),
			SignupDate: time.Date(createdAt.Year(), createdAt.Month(), createdAt.Day(), 0, 0, 0, 0, createdAt.Location()),
			CreatedAt:  createdAt,
		})
	}
	return out
}

func (g *CustomerGenerator) uniqueEmail(seen map[string]struct{}) string {
	for range emailAttempts {
		email := strings.ToLower(g.rnd.fake.Email())
		if _, dup := seen[email]; !dup {
			return email
		}
	}
	user := strings.ToLower(g.rnd.fake.Username())
	domainName := strings.ToLower(g.rnd.fake.DomainName())
	for n := emailAttempts + 1; ; n++ {
		email := fmt.Sprintf("%s%d@%s", user, n, domainName)
		if _, dup := seen[email]; !dup {
			return email
		}
	}
}
