package repo

import (
	"context"
	"fmt"
)

// Migrate creates the four seed tables and their indexes if missing.
func (r *SQLSeedRepo) Migrate(ctx context.Context) error {
	return r.execAll(ctx, "migrate", r.d.schema)
}

func (r *SQLSeedRepo) DropAndRecreate(ctx context.Context) error {
	if err := r.execAll(ctx, "drop", r.d.drop); err != nil {
		return err
	}
	return r.Migrate(ctx)
}

// Truncate removes all rows, children first.
func (r *SQLSeedRepo) Truncate(ctx context.Context) error {
	return r.execAll(ctx, "truncate", r.d.truncate)
}

func (r *SQLSeedRepo) execAll(ctx context.Context, op string, stmts []string) error {
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}
