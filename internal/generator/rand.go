// Package generator produces temporally and referentially consistent seed data:
// customers, products, and the multi-stage order lifecycle with its line items.
//
// Every generator draws from an explicit *Rand so that a run is reproducible from its seed.
package generator

import (
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Rand is the single randomness handle threaded through a run. The numeric
// draws and the fake text draws share one PCG source.
type Rand struct {
	r    *rand.Rand
	fake *gofakeit.Faker
}

func NewRand(seed uint64) *Rand {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Rand{r: rand.New(src), fake: gofakeit.NewFaker(src, false)}
}

// IntRange returns a uniform int in [lo, hi].
func (r *Rand) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.r.IntN(hi-lo+1)
}

// Float64Range returns a uniform float in [lo, hi).
func (r *Rand) Float64Range(lo, hi float64) float64 {
	return lo + r.r.Float64()*(hi-lo)
}

func (r *Rand) Float64() float64 { return r.r.Float64() }

func (r *Rand) Bool() bool { return r.r.IntN(2) == 1 }

func (r *Rand) Pick(options []string) string { return options[r.r.IntN(len(options))] }

// Timestamp returns a whole-second instant drawn uniformly from [start, end].
func (r *Rand) Timestamp(start, end time.Time) time.Time {
	span := int64(end.Sub(start) / time.Second)
	if span <= 0 {
		return start
	}
	return start.Add(time.Duration(r.r.Int64N(span+1)) * time.Second)
}

// Sample returns k distinct indices from [0, n) in random order.
func (r *Rand) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	return r.r.Perm(n)[:k]
}
