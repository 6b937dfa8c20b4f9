package store

import (
	"context"
	"fmt"

	"github.com/everydev1618/gochat"
)

var seedStatements = []string{
	`CREATE TABLE IF NOT EXISTS goods (
		name  TEXT PRIMARY KEY,
		stock INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id     TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT ''
	)`,
	`INSERT INTO goods (name, stock) VALUES ('phone', 10), ('earphone', 20), ('laptop', 5)
		ON CONFLICT (name) DO UPDATE SET stock = excluded.stock`,
	`INSERT INTO orders (id, status) VALUES ('1001', 'ordered'), ('1002', 'shipped'), ('1003', 'delivered')
		ON CONFLICT (id) DO UPDATE SET status = excluded.status`,
}

// Seed creates the demo shop schema and resets its rows. Running it again
// restores the initial stock and order states.
func Seed(ctx context.Context, s chat.Store) error {
	for i, stmt := range seedStatements {
		if err := s.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed statement %d: %w", i+1, err)
		}
	}
	return nil
}
