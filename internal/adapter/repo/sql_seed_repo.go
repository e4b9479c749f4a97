package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/aq2208/gorder-seed/internal/entity"
	"github.com/aq2208/gorder-seed/internal/usecase"
)

const defaultBatchSize = 500

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type SQLSeedRepo struct {
	db        *sql.DB
	d         dialect
	batchSize int
}

func NewSQLSeedRepo(db *sql.DB, driver string, batchSize int) (*SQLSeedRepo, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &SQLSeedRepo{db: db, d: d, batchSize: batchSize}, nil
}

func knownTable(t usecase.Table) bool {
	for _, k := range usecase.Tables {
		if k == t {
			return true
		}
	}
	return false
}

func (r *SQLSeedRepo) LatestCreatedAt(ctx context.Context, table usecase.Table) (*time.Time, error) {
	if !knownTable(table) {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM `+string(table)).Scan(&latest); err != nil {
		return nil, fmt.Errorf("latest %s: %w", table, err)
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time.UTC()
	return &t, nil
}

func (r *SQLSeedRepo) CustomerEmails(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT email FROM customers`)
	if err != nil {
		return nil, fmt.Errorf("customer emails: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out[strings.ToLower(email)] = struct{}{}
	}
	return out, rows.Err()
}

func (r *SQLSeedRepo) CustomerIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("customer ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLSeedRepo) ProductCatalog(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id,name,category,price,created_at
FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("product catalog: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLSeedRepo) InsertCustomers(ctx context.Context, customers []domain.Customer) error {
	rows := make([][]any, len(customers))
	for i, c := range customers {
		rows[i] = []any{c.Name, c.Email, c.Country, c.SignupDate, c.CreatedAt}
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return r.bulkInsert(ctx, tx, "customers",
			[]string{"name", "email", "country", "signup_date", "created_at"}, rows)
	})
}

func (r *SQLSeedRepo) InsertProducts(ctx context.Context, products []domain.Product) error {
	rows := make([][]any, len(products))
	for i, p := range products {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("product %q: %w", p.Name, err)
		}
		rows[i] = []any{p.Name, p.Category, p.Price, p.CreatedAt}
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return r.bulkInsert(ctx, tx, "products",
			[]string{"name", "category", "price", "created_at"}, rows)
	})
}

func (r *SQLSeedRepo) SaveOrders(ctx context.Context, records []domain.OrderRecord, items []domain.OrderItem) error {
	orderRows := make([][]any, len(records))
	seen := make(map[string]struct{})
	var ids []string
	for i, o := range records {
		orderRows[i] = []any{o.ID, o.CustomerID, o.OrderDate, string(o.Status), o.TotalAmount, o.CreatedAt}
		if _, ok := seen[o.ID]; !ok {
			seen[o.ID] = struct{}{}
			ids = append(ids, o.ID)
		}
	}
	itemRows := make([][]any, len(items))
	for i, it := range items {
		itemRows[i] = []any{it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.CreatedAt}
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.bulkInsert(ctx, tx, "orders",
			[]string{"id", "customer_id", "order_date", "status", "total_amount", "created_at"}, orderRows); err != nil {
			return err
		}
		if err := r.bulkInsert(ctx, tx, "order_items",
			[]string{"order_id", "product_id", "quantity", "unit_price", "created_at"}, itemRows); err != nil {
			return err
		}
		return r.recompute(ctx, tx, ids)
	})
}

// RecomputeTotals sets total_amount on every record of the given logical orders
// to the sum of their item lines.
func (r *SQLSeedRepo) RecomputeTotals(ctx context.Context, orderIDs []string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return r.recompute(ctx, tx, orderIDs)
	})
}

func (r *SQLSeedRepo) recompute(ctx context.Context, ex execer, ids []string) error {
	for start := 0; start < len(ids); start += r.batchSize {
		end := min(start+r.batchSize, len(ids))
		args := make([]any, 0, end-start)
		for _, id := range ids[start:end] {
			args = append(args, id)
		}
		q := `
UPDATE orders SET total_amount = (
    SELECT COALESCE(SUM(i.quantity * i.unit_price), 0)
    FROM order_items i WHERE i.order_id = orders.id
) WHERE id IN ` + placeholders(len(args))
		if _, err := ex.ExecContext(ctx, r.d.rebind(q), args...); err != nil {
			return fmt.Errorf("recompute totals: %w", err)
		}
	}
	return nil
}

func (r *SQLSeedRepo) Stats(ctx context.Context) ([]usecase.TableStat, error) {
	out := make([]usecase.TableStat, 0, len(usecase.Tables))
	for _, t := range usecase.Tables {
		var (
			n      int64
			latest sql.NullTime
		)
		row := r.db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(created_at) FROM `+string(t))
		if err := row.Scan(&n, &latest); err != nil {
			return nil, fmt.Errorf("stats %s: %w", t, err)
		}
		st := usecase.TableStat{Table: t, Rows: n}
		if latest.Valid {
			ts := latest.Time.UTC()
			st.Latest = &ts
		}
		out = append(out, st)
	}
	return out, nil
}

func (r *SQLSeedRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// bulkInsert writes rows as multi-row INSERTs of at most batchSize rows each.
func (r *SQLSeedRepo) bulkInsert(ctx context.Context, ex execer, table string, cols []string, rows [][]any) error {
	ph := placeholders(len(cols))
	head := "INSERT INTO " + table + " (" + strings.Join(cols, ",") + ") VALUES "
	for start := 0; start < len(rows); start += r.batchSize {
		end := min(start+r.batchSize, len(rows))

		var b strings.Builder
		b.WriteString(head)
		args := make([]any, 0, (end-start)*len(cols))
		for i := start; i < end; i++ {
			if i > start {
				b.WriteString(", ")
			}
			b.WriteString(ph)
			args = append(args, rows[i]...)
		}
		if _, err := ex.ExecContext(ctx, r.d.rebind(b.String()), args...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

var _ usecase.SeedStore = (*SQLSeedRepo)(nil)
