package app

import (
	"errors"
	"flag"
	"io"
)

var ErrConflictingFlags = errors.New("cannot use both -truncate and -drop-recreate")

type Flags struct {
	InitDB       bool
	Truncate     bool
	DropRecreate bool
	StatsOnly    bool
	Serve        bool

	// Overrides holds only the generation flags set on the command line, keyed by
	// config path, so defaults never mask file or environment values.
	Overrides map[string]any
}

// flag name -> config key
var generateKeys = map[string]string{
	"customers":   "generate.customers",
	"products":    "generate.products",
	"orders":      "generate.orders",
	"order-items": "generate.max_items_per_order",
	"days":        "generate.days",
	"start-date":  "generate.start_date",
	"seed":        "generate.seed",
}

func ParseFlags(args []string, out io.Writer) (Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("order-seed", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		customers  = fs.Int("customers", 300, "customers to create")
		products   = fs.Int("products", 500, "products to create")
		orders     = fs.Int("orders", 2500, "logical orders to create")
		orderItems = fs.Int("order-items", 7, "max distinct items per order")
		days       = fs.Int("days", 30, "width of each generation window in days")
		startDate  = fs.String("start-date", "", "explicit window start, YYYY-MM-DD")
		seed       = fs.Uint64("seed", 0, "random seed, 0 derives one from the clock")
	)
	fs.BoolVar(&f.InitDB, "init-db", false, "create tables and indexes if missing")
	fs.BoolVar(&f.Truncate, "truncate", false, "delete all rows before generating")
	fs.BoolVar(&f.DropRecreate, "drop-recreate", false, "drop and recreate all tables before generating")
	fs.BoolVar(&f.StatsOnly, "stats-only", false, "print per-table row counts and exit")
	fs.BoolVar(&f.Serve, "serve", false, "run the HTTP API instead of a single generation")

	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.Truncate && f.DropRecreate {
		return f, ErrConflictingFlags
	}

	values := map[string]any{
		"customers":   *customers,
		"products":    *products,
		"orders":      *orders,
		"order-items": *orderItems,
		"days":        *days,
		"start-date":  *startDate,
		"seed":        *seed,
	}
	f.Overrides = map[string]any{}
	fs.Visit(func(fl *flag.Flag) {
		if key, ok := generateKeys[fl.Name]; ok {
			f.Overrides[key] = values[fl.Name]
		}
	})
	return f, nil
}
