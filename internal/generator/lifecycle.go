package generator

import (
	"errors"
	"fmt"
	"time"

	domain "github.com/aq2208/gorder-seed/internal/entity"
	"github.com/shopspring/decimal"
)

var (
	ErrNoCustomers = errors.New("no customers found, populate customers first")
	ErrNoProducts  = errors.New("no products found, populate products first")
)

const (
	dedupeAttempts = 10
	discountChance = 0.10
	orderIDLayout  = "20060102-150405"
)

type LifecycleInput struct {
	Orders           int
	MaxItemsPerOrder int
	CustomerIDs      []int64
	Catalog          []domain.Product
	Window           Window
}

type LifecycleSummary struct {
	Orders         int     `json:"orders"`
	WithItems      int     `json:"with_items"`
	WithoutItems   int     `json:"without_items"`
	Completed      int     `json:"completed"`
	Cancelled      int     `json:"cancelled"`
	Refunded       int     `json:"refunded"`
	Items          int     `json:"items"`
	ItemRate       float64 `json:"item_rate"`
	CompletionRate float64 `json:"completion_rate"`
	RefundRate     float64 `json:"refund_rate"`
}

// Batch is the output of one lifecycle run, ready for persistence.
type Batch struct {
	Window  Window
	Records []domain.OrderRecord
	Items   []domain.OrderItem
	Summary LifecycleSummary
}

// OrderIDs lists the distinct logical order ids in the batch.
func (b Batch) OrderIDs() []string {
	ids := make([]string, 0, b.Summary.Orders)
	seen := make(map[string]struct{}, b.Summary.Orders)
	for _, r := range b.Records {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		ids = append(ids, r.ID)
	}
	return ids
}

type draft struct {
	id         string
	customerID int64
	at         time.Time
	items      []domain.OrderItem
	total      decimal.Decimal
	completed  bool
	refunded   bool
}

type Lifecycle struct {
	rnd *Rand
}

func NewLifecycle(rnd *Rand) *Lifecycle {
	return &Lifecycle{rnd: rnd}
}

// Run creates in.Orders logical orders: all start pending, most receive items,
// item-bearing orders mostly complete, the rest cancel, and a few completions refund.
func (l *Lifecycle) Run(in LifecycleInput) (Batch, error) {
	if len(in.CustomerIDs) == 0 {
		return Batch{}, ErrNoCustomers
	}
	if len(in.Catalog) == 0 {
		return Batch{}, ErrNoProducts
	}

	w := orderWindow(in.Window, in.Catalog)
	drafts := l.pending(in.Orders, in.CustomerIDs, w)

	sum := LifecycleSummary{Orders: len(drafts)}
	sum.ItemRate = l.rnd.Float64Range(0.85, 1.00)
	for _, i := range l.rnd.Sample(len(drafts), int(float64(len(drafts))*sum.ItemRate)) {
		l.addItems(&drafts[i], in.Catalog, in.MaxItemsPerOrder, w)
	}

	var withItems []int
	for i := range drafts {
		if len(drafts[i].items) > 0 {
			withItems = append(withItems, i)
			sum.Items += len(drafts[i].items)
		}
	}
	sum.WithItems = len(withItems)
	sum.WithoutItems = len(drafts) - len(withItems)

	sum.CompletionRate = l.rnd.Float64Range(0.90, 1.00)
	var completed []int
	for _, k := range l.rnd.Sample(len(withItems), int(float64(len(withItems))*sum.CompletionRate)) {
		drafts[withItems[k]].completed = true
		completed = append(completed, withItems[k])
	}

	sum.RefundRate = l.rnd.Float64Range(0.05, 0.10)
	for _, k := range l.rnd.Sample(len(completed), int(float64(len(completed))*sum.RefundRate)) {
		drafts[completed[k]].refunded = true
	}

	batch := Batch{Window: w}
	for i := range drafts {
		records, err := l.materialize(&drafts[i], w)
		if err != nil {
			return Batch{}, err
		}
		for _, r := range records {
			switch r.Status {
			case domain.StatusCompleted:
				sum.Completed++
			case domain.StatusCancelled:
				sum.Cancelled++
			case domain.StatusRefunded:
				sum.Refunded++
			}
		}
		batch.Records = append(batch.Records, records...)
		batch.Items = append(batch.Items, drafts[i].items...)
	}
	batch.Summary = sum
	return batch, nil
}

// orderWindow moves the start past the earliest product so orders never predate the catalog.
func orderWindow(w Window, catalog []domain.Product) Window {
	earliest := catalog[0].CreatedAt
	for _, p := range catalog[1:] {
		if p.CreatedAt.Before(earliest) {
			earliest = p.CreatedAt
		}
	}
	if earliest.After(w.Start) {
		w.Start = earliest.Add(ResumeOffset).Truncate(time.Second)
	}
	if w.Start.After(w.End) {
		w.Start = w.End
	}
	return w
}

func (l *Lifecycle) pending(n int, customers []int64, w Window) []draft {
	counters := make(map[string]int)
	drafts := make([]draft, 0, n)
	for range n {
		at := l.rnd.Timestamp(w.Start, w.End)
		stamp := at.Format(orderIDLayout)
		counters[stamp]++
		drafts = append(drafts, draft{
			id:         fmt.Sprintf("%s-%06d", stamp, counters[stamp]),
			customerID: customers[l.rnd.IntRange(0, len(customers)-1)],
			at:         at,
			total:      decimal.Zero,
		})
	}
	return drafts
}

func (l *Lifecycle) addItems(d *draft, catalog []domain.Product, maxItems int, w Window) {
	var eligible []domain.Product
	for _, p := range catalog {
		if !p.CreatedAt.After(d.at) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return
	}

	inOrder := make(map[int64]struct{})
	count := l.rnd.IntRange(1, maxItems)
	for range count {
		p := eligible[l.rnd.IntRange(0, len(eligible)-1)]
		// best effort only: a repeat slips through once attempts run out
		for attempt := 0; attempt < dedupeAttempts && len(eligible) > 1; attempt++ {
			if _, dup := inOrder[p.ID]; !dup {
				break
			}
			p = eligible[l.rnd.IntRange(0, len(eligible)-1)]
		}
		inOrder[p.ID] = struct{}{}

		unit := p.Price
		if l.rnd.Float64() < discountChance {
			markdown := l.rnd.Float64Range(0.10, 0.30)
			unit = unit.Mul(decimal.NewFromFloat(1 - markdown))
		}
		unit = unit.Round(2)

		createdAt := d.at.
			Add(time.Duration(l.rnd.IntRange(1, 60)) * time.Minute).
			Add(time.Duration(l.rnd.IntRange(0, 59)) * time.Second)

		item := domain.OrderItem{
			OrderID:   d.id,
			ProductID: p.ID,
			Quantity:  l.rnd.IntRange(1, 3),
			UnitPrice: unit,
			CreatedAt: w.Clamp(createdAt),
		}
		d.items = append(d.items, item)
		d.total = d.total.Add(item.LineTotal())
	}
}

func (l *Lifecycle) materialize(d *draft, w Window) ([]domain.OrderRecord, error) {
	trail := domain.NewStatusTrail(d.id, d.customerID, d.at)

	terminal := domain.StatusCancelled
	if d.completed {
		terminal = domain.StatusCompleted
	}
	at := l.settle(trail.LastAt(), trail.LastAt().AddDate(0, 0, l.rnd.IntRange(1, 4)), w)
	if err := trail.Advance(terminal, at); err != nil {
		return nil, err
	}

	if d.refunded {
		at = l.settle(trail.LastAt(), trail.LastAt().AddDate(0, 0, l.rnd.IntRange(1, 2)), w)
		if err := trail.Advance(domain.StatusRefunded, at); err != nil {
			return nil, err
		}
	}

	trail.SetTotal(d.total)
	return trail.Records(), nil
}

// settle keeps a stage timestamp inside the window: an overshoot is replaced by
// end minus a few hours, but never earlier than the previous stage.
func (l *Lifecycle) settle(prev, natural time.Time, w Window) time.Time {
	if !natural.After(w.End) {
		return natural
	}
	t := w.End.Add(-time.Duration(l.rnd.IntRange(1, 12)) * time.Hour)
	if t.Before(prev) {
		t = prev
	}
	return t
}
