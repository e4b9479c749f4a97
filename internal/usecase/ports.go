package usecase

import (
	"context"
	"time"

	domain "github.com/aq2208/gorder-seed/internal/entity"
)

type Table string

const (
	TableCustomers  Table = "customers"
	TableProducts   Table = "products"
	TableOrders     Table = "orders"
	TableOrderItems Table = "order_items"
)

var Tables = []Table{TableCustomers, TableProducts, TableOrders, TableOrderItems}

type TableStat struct {
	Table  Table      `json:"table"`
	Rows   int64      `json:"rows"`
	Latest *time.Time `json:"latest_created_at,omitempty"`
}

// SeedStore is the persistence port. Each Insert/Save call is one transaction.
type SeedStore interface {
	LatestCreatedAt(ctx context.Context, table Table) (*time.Time, error)
	CustomerEmails(ctx context.Context) (map[string]struct{}, error)
	CustomerIDs(ctx context.Context) ([]int64, error)
	ProductCatalog(ctx context.Context) ([]domain.Product, error)

	InsertCustomers(ctx context.Context, customers []domain.Customer) error
	InsertProducts(ctx context.Context, products []domain.Product) error
	// SaveOrders inserts the status records and items, then recomputes totals for
	// the touched logical orders, all in a single transaction.
	SaveOrders(ctx context.Context, records []domain.OrderRecord, items []domain.OrderItem) error
	RecomputeTotals(ctx context.Context, orderIDs []string) error

	Stats(ctx context.Context) ([]TableStat, error)
}

// RunLock keeps generator runs single-writer across processes.
type RunLock interface {
	Acquire(ctx context.Context, owner string) (bool, error)
	Release(ctx context.Context, owner string) error
}

type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, msg RunCompletedMsg) error
}

// RunHistory returns the most recent run-completed event, or ErrNoRunRecorded.
type RunHistory interface {
	Last(ctx context.Context) (RunCompletedMsg, error)
}

type RunMetrics interface {
	ObserveStage(stage string, d time.Duration)
	AddRows(table Table, n int)
	RunFinished(result string)
}
