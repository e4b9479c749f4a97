package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aq2208/gorder-seed/internal/generator"
	"github.com/aq2208/gorder-seed/internal/logging"
	"github.com/google/uuid"
)

var (
	ErrRunInProgress = errors.New("another seed run is in progress")
	ErrNoCustomers   = generator.ErrNoCustomers
	ErrNoProducts    = generator.ErrNoProducts
)

// IsPrecondition reports whether err aborted the orders stage for lack of input data.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrNoCustomers) || errors.Is(err, ErrNoProducts)
}

const (
	StageCustomers = "customers"
	StageProducts  = "products"
	StageOrders    = "orders"

	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
	ResultLocked  = "locked"
)

type Params struct {
	Customers        int        `json:"customers"`
	Products         int        `json:"products"`
	Orders           int        `json:"orders"`
	MaxItemsPerOrder int        `json:"max_items_per_order"`
	Days             int        `json:"days"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	Seed             uint64     `json:"seed"`
}

type StageReport struct {
	Inserted int               `json:"inserted"`
	Window   *generator.Window `json:"window,omitempty"`
	Skipped  string            `json:"skipped,omitempty"`
}

type OrdersReport struct {
	StageReport
	Records int                         `json:"records"`
	Items   int                         `json:"items"`
	Summary *generator.LifecycleSummary `json:"summary,omitempty"`
}

type RunReport struct {
	RunID      string       `json:"run_id"`
	Seed       uint64       `json:"seed"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Customers  StageReport  `json:"customers"`
	Products   StageReport  `json:"products"`
	Orders     OrdersReport `json:"orders"`
}

type SeedRun struct {
	store   SeedStore
	lock    RunLock
	pub     EventPublisher
	metrics RunMetrics
	clock   func() time.Time
	anchor  time.Time

	mu sync.Mutex
}

type Option func(*SeedRun)

func WithLock(l RunLock) Option             { return func(s *SeedRun) { s.lock = l } }
func WithPublisher(p EventPublisher) Option { return func(s *SeedRun) { s.pub = p } }
func WithMetrics(m RunMetrics) Option       { return func(s *SeedRun) { s.metrics = m } }
func WithClock(f func() time.Time) Option   { return func(s *SeedRun) { s.clock = f } }
func WithAnchor(t time.Time) Option         { return func(s *SeedRun) { s.anchor = t } }

func NewSeedRun(store SeedStore, opts ...Option) *SeedRun {
	s := &SeedRun{
		store: store,
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs customers → products → orders/items/totals. Customers and products
// commit independently; a failure stops the pipeline but leaves earlier stages in place.
func (uc *SeedRun) Execute(ctx context.Context, p Params) (RunReport, error) {
	if !uc.mu.TryLock() {
		uc.finish(ResultLocked)
		return RunReport{}, ErrRunInProgress
	}
	defer uc.mu.Unlock()

	rep := RunReport{RunID: uuid.NewString(), Seed: p.Seed, StartedAt: uc.clock()}
	if rep.Seed == 0 {
		rep.Seed = uint64(rep.StartedAt.UnixNano())
	}
	log := logging.FromCtx(ctx).With("run_id", rep.RunID, "seed", rep.Seed)
	ctx = logging.WithCtx(ctx, log)

	if uc.lock != nil {
		ok, err := uc.lock.Acquire(ctx, rep.RunID)
		if err != nil {
			uc.finish(ResultFailed)
			return rep, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			uc.finish(ResultLocked)
			return rep, ErrRunInProgress
		}
		defer func() {
			if err := uc.lock.Release(context.WithoutCancel(ctx), rep.RunID); err != nil {
				log.Warn("release run lock", "error", err)
			}
		}()
	}

	rnd := generator.NewRand(rep.Seed)
	log.Info("seed run started",
		"customers", p.Customers, "products", p.Products, "orders", p.Orders,
		"max_items_per_order", p.MaxItemsPerOrder, "days", p.Days)

	if err := uc.stage(StageCustomers, func() error { return uc.seedCustomers(ctx, rnd, p, &rep.Customers) }); err != nil {
		return uc.fail(ctx, rep, err)
	}
	if err := uc.stage(StageProducts, func() error { return uc.seedProducts(ctx, rnd, p, &rep.Products) }); err != nil {
		return uc.fail(ctx, rep, err)
	}

	err := uc.stage(StageOrders, func() error { return uc.seedOrders(ctx, rnd, p, &rep.Orders) })
	rep.FinishedAt = uc.clock()
	switch {
	case IsPrecondition(err):
		rep.Orders.Skipped = err.Error()
		log.Warn("orders stage skipped", "reason", err)
		uc.publish(ctx, rep)
		uc.finish(ResultSkipped)
		return rep, fmt.Errorf("%s stage: %w", StageOrders, err)
	case err != nil:
		return uc.fail(ctx, rep, err)
	}

	uc.publish(ctx, rep)
	uc.finish(ResultOK)
	log.Info("seed run completed",
		"customers", rep.Customers.Inserted, "products", rep.Products.Inserted,
		"orders", rep.Orders.Inserted, "order_records", rep.Orders.Records, "order_items", rep.Orders.Items,
		"dur_ms", rep.FinishedAt.Sub(rep.StartedAt).Milliseconds())
	return rep, nil
}

func (uc *SeedRun) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if uc.metrics != nil {
		uc.metrics.ObserveStage(name, time.Since(start))
	}
	if err != nil && !IsPrecondition(err) {
		return fmt.Errorf("%s stage: %w", name, err)
	}
	return err
}

func (uc *SeedRun) fail(ctx context.Context, rep RunReport, err error) (RunReport, error) {
	rep.FinishedAt = uc.clock()
	logging.FromCtx(ctx).Error("seed run failed", "error", err)
	uc.finish(ResultFailed)
	return rep, err
}

func (uc *SeedRun) finish(result string) {
	if uc.metrics != nil {
		uc.metrics.RunFinished(result)
	}
}

func (uc *SeedRun) rows(table Table, n int) {
	if uc.metrics != nil {
		uc.metrics.AddRows(table, n)
	}
}

func (uc *SeedRun) window(ctx context.Context, table Table, p Params) (generator.Window, error) {
	latest, err := uc.store.LatestCreatedAt(ctx, table)
	if err != nil {
		return generator.Window{}, fmt.Errorf("latest %s timestamp: %w", table, err)
	}
	w := generator.NewWindow(generator.WindowInput{
		Latest:    latest,
		StartDate: p.StartDate,
		Days:      p.Days,
		Anchor:    uc.anchor,
		Now:       uc.clock(),
	})
	l := logging.FromCtx(ctx)
	l.Info("date range",
		"table", table, "start", w.Start.Format(time.DateTime), "end", w.End.Format(time.DateTime))
	if p.StartDate != nil && latest != nil && !w.Start.After(*latest) {
		msg := "window overlaps existing rows"
		if table == TableOrders {
			// order ids are a timestamp plus a sequence local to one batch
			msg = "window overlaps existing orders, order ids may collide"
		}
		l.Warn(msg, "table", table,
			"start", w.Start.Format(time.DateTime), "latest", latest.Format(time.DateTime))
	}
	return w, nil
}

func (uc *SeedRun) seedCustomers(ctx context.Context, rnd *generator.Rand, p Params, rep *StageReport) error {
	if p.Customers <= 0 {
		return nil
	}
	w, err := uc.window(ctx, TableCustomers, p)
	if err != nil {
		return err
	}
	taken, err := uc.store.CustomerEmails(ctx)
	if err != nil {
		return fmt.Errorf("load emails: %w", err)
	}

	customers := generator.NewCustomerGenerator(rnd).Generate(p.Customers, taken, w)
	if err := uc.store.InsertCustomers(ctx, customers); err != nil {
		return err
	}
	rep.Inserted, rep.Window = len(customers), &w
	uc.rows(TableCustomers, len(customers))
	logging.FromCtx(ctx).Info("customers created", "count", len(customers))
	return nil
}

func (uc *SeedRun) seedProducts(ctx context.Context, rnd *generator.Rand, p Params, rep *StageReport) error {
	if p.Products <= 0 {
		return nil
	}
	w, err := uc.window(ctx, TableProducts, p)
	if err != nil {
		return err
	}

	products := generator.NewProductGenerator(rnd).Generate(p.Products, w)
	if err := uc.store.InsertProducts(ctx, products); err != nil {
		return err
	}
	rep.Inserted, rep.Window = len(products), &w
	uc.rows(TableProducts, len(products))
	logging.FromCtx(ctx).Info("products created", "count", len(products))
	return nil
}

func (uc *SeedRun) seedOrders(ctx context.Context, rnd *generator.Rand, p Params, rep *OrdersReport) error {
	if p.Orders <= 0 {
		return nil
	}
	log := logging.FromCtx(ctx)

	customerIDs, err := uc.store.CustomerIDs(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	if len(customerIDs) == 0 {
		return ErrNoCustomers
	}
	catalog, err := uc.store.ProductCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	if len(catalog) == 0 {
		return ErrNoProducts
	}
	log.Info("order inputs", "customers", len(customerIDs), "products", len(catalog))

	w, err := uc.window(ctx, TableOrders, p)
	if err != nil {
		return err
	}
	batch, err := generator.NewLifecycle(rnd).Run(generator.LifecycleInput{
		Orders:           p.Orders,
		MaxItemsPerOrder: p.MaxItemsPerOrder,
		CustomerIDs:      customerIDs,
		Catalog:          catalog,
		Window:           w,
	})
	if err != nil {
		return err
	}
	if !batch.Window.Start.Equal(w.Start) {
		log.Info("order start moved after products", "start", batch.Window.Start.Format(time.DateTime))
	}
	logSummary(log, batch.Summary)

	generator.Aggregate(batch.Records, batch.Items)
	if err := uc.store.SaveOrders(ctx, batch.Records, batch.Items); err != nil {
		return err
	}

	rep.Inserted = batch.Summary.Orders
	rep.Window = &batch.Window
	rep.Records = len(batch.Records)
	rep.Items = len(batch.Items)
	rep.Summary = &batch.Summary
	uc.rows(TableOrders, len(batch.Records))
	uc.rows(TableOrderItems, len(batch.Items))
	return nil
}

func logSummary(log *slog.Logger, s generator.LifecycleSummary) {
	log.Info("order lifecycle generated",
		"orders", s.Orders,
		"with_items", s.WithItems, "without_items", s.WithoutItems, "item_rate", s.ItemRate,
		"completed", s.Completed, "completion_rate", s.CompletionRate,
		"cancelled", s.Cancelled,
		"refunded", s.Refunded, "refund_rate", s.RefundRate,
		"items", s.Items)
}

// publish failures are logged only.
func (uc *SeedRun) publish(ctx context.Context, rep RunReport) {
	if uc.pub == nil {
		return
	}
	msg := RunCompletedMsg{
		RunID:        rep.RunID,
		Seed:         rep.Seed,
		StartedAt:    rep.StartedAt,
		FinishedAt:   rep.FinishedAt,
		Customers:    rep.Customers.Inserted,
		Products:     rep.Products.Inserted,
		Orders:       rep.Orders.Inserted,
		OrderRecords: rep.Orders.Records,
		OrderItems:   rep.Orders.Items,
		Skipped:      rep.Orders.Skipped,
	}
	if rep.Orders.Window != nil {
		msg.OrdersFrom, msg.OrdersTo = rep.Orders.Window.Start, rep.Orders.Window.End
	}
	if err := uc.pub.PublishRunCompleted(ctx, msg); err != nil {
		logging.FromCtx(ctx).Warn("publish run completed", "error", err)
	}
}
