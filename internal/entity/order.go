package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrTimeRegression    = errors.New("status timestamp precedes previous stage")
)

// next lists the stages a status may advance to.
var next = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusCancelled},
	StatusCompleted: {StatusRefunded},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

func (s Status) CanAdvanceTo(to Status) bool {
	for _, n := range next[s] {
		if n == to {
			return true
		}
	}
	return false
}

// OrderRecord is one physical row of a logical order. Several records share ID.
type OrderRecord struct {
	RecordID    int64
	ID          string
	CustomerID  int64
	OrderDate   time.Time
	Status      Status
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

type OrderItem struct {
	ID        int64
	OrderID   string
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StatusTrail builds the physical records of one logical order. It starts with the
// pending record and only accepts legal, time-ordered follow-ups.
type StatusTrail struct {
	records []OrderRecord
}

func NewStatusTrail(id string, customerID int64, orderDate time.Time) *StatusTrail {
	return &StatusTrail{records: []OrderRecord{{
		ID:          id,
		CustomerID:  customerID,
		OrderDate:   orderDate,
		Status:      StatusPending,
		TotalAmount: decimal.Zero,
		CreatedAt:   orderDate,
	}}}
}

func (t *StatusTrail) last() OrderRecord { return t.records[len(t.records)-1] }

func (t *StatusTrail) Current() Status { return t.last().Status }

// LastAt is the created_at of the most recent stage.
func (t *StatusTrail) LastAt() time.Time { return t.last().CreatedAt }

func (t *StatusTrail) Advance(to Status, at time.Time) error {
	prev := t.last()
	if !prev.Status.CanAdvanceTo(to) {
		return fmt.Errorf("%w: %s -> %s (order %s)", ErrIllegalTransition, prev.Status, to, prev.ID)
	}
	if at.Before(prev.CreatedAt) {
		return fmt.Errorf("%w: %s at %s before %s at %s", ErrTimeRegression,
			to, at.Format(time.DateTime), prev.Status, prev.CreatedAt.Format(time.DateTime))
	}
	rec := prev
	rec.Status = to
	rec.CreatedAt = at
	t.records = append(t.records, rec)
	return nil
}

// SetTotal stamps the same total on every record of the order.
func (t *StatusTrail) SetTotal(total decimal.Decimal) {
	for i := range t.records {
		t.records[i].TotalAmount = total
	}
}

func (t *StatusTrail) Records() []OrderRecord {
	out := make([]OrderRecord, len(t.records))
	copy(out, t.records)
	return out
}
