package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoRunRecorded  = errors.New("no run recorded")
	ErrInvalidRequest = errors.New("invalid run request")
)

// RunRequest asks for one seed run over HTTP or the request queue.
// Absent fields fall back to the configured defaults.
type RunRequest struct {
	Customers        *int   `json:"customers,omitempty"`
	Products         *int   `json:"products,omitempty"`
	Orders           *int   `json:"orders,omitempty"`
	MaxItemsPerOrder int    `json:"max_items_per_order,omitempty"`
	Days             int    `json:"days,omitempty"`
	StartDate        string `json:"start_date,omitempty"`
	Seed             uint64 `json:"seed,omitempty"`
}

// Params merges the request over def.
func (r RunRequest) Params(def Params) (Params, error) {
	p := def
	if r.Customers != nil {
		p.Customers = *r.Customers
	}
	if r.Products != nil {
		p.Products = *r.Products
	}
	if r.Orders != nil {
		p.Orders = *r.Orders
	}
	if r.MaxItemsPerOrder != 0 {
		p.MaxItemsPerOrder = r.MaxItemsPerOrder
	}
	if r.Days != 0 {
		p.Days = r.Days
	}
	if r.StartDate != "" {
		t, err := time.Parse(time.DateOnly, r.StartDate)
		if err != nil {
			return p, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrInvalidRequest)
		}
		p.StartDate = &t
	}
	if r.Seed != 0 {
		p.Seed = r.Seed
	}
	switch {
	case p.Customers < 0 || p.Products < 0 || p.Orders < 0:
		return p, fmt.Errorf("%w: counts must be non-negative", ErrInvalidRequest)
	case p.MaxItemsPerOrder < 1:
		return p, fmt.Errorf("%w: max_items_per_order must be at least 1", ErrInvalidRequest)
	case p.Days < 1:
		return p, fmt.Errorf("%w: days must be at least 1", ErrInvalidRequest)
	}
	return p, nil
}

// Published after every run that reached the end of the pipeline.
type RunCompletedMsg struct {
	RunID        string    `json:"runId"`
	Seed         uint64    `json:"seed"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	Customers    int       `json:"customers"`
	Products     int       `json:"products"`
	Orders       int       `json:"orders"`
	OrderRecords int       `json:"orderRecords"`
	OrderItems   int       `json:"orderItems"`
	OrdersFrom   time.Time `json:"ordersFrom,omitzero"`
	OrdersTo     time.Time `json:"ordersTo,omitzero"`
	Skipped      string    `json:"skipped,omitempty"`
}

// Publishers fans a message out to every sink; one failing sink does not stop the rest.
type Publishers []EventPublisher

func (ps Publishers) PublishRunCompleted(ctx context.Context, msg RunCompletedMsg) error {
	var errs []error
	for _, p := range ps {
		if err := p.PublishRunCompleted(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ EventPublisher = Publishers(nil)
