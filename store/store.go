// Package store implements the persistent store collaborator on SQLite and
// PostgreSQL.
//
// Statements arrive fully interpolated from conversation scripts and are
// executed verbatim. Queries return only their first row.
package store

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/everydev1618/gochat"
)

// Store is a chat.Store that holds a connection pool.
type Store interface {
	chat.Store
	Close() error
}

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the store for driver. An empty driver means SQLite.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite, "sqlite3":
		return OpenSQLite(ctx, dsn)
	case DriverPostgres, "postgresql", "pgx":
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// normalizeRow maps driver values onto the types the engine understands:
// string, int64, float64, bool, time.Time and nil.
func normalizeRow(vals []any) chat.Row {
	row := make(chat.Row, len(vals))
	for i, v := range vals {
		row[i] = normalizeValue(v)
	}
	return row
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case float32:
		return float64(v)
	case *big.Int:
		if v.IsInt64() {
			return v.Int64()
		}
		return v.String()
	case pgtype.Numeric:
		if !v.Valid {
			return nil
		}
		if v.Exp >= 0 && v.Int != nil {
			if n, err := v.Int64Value(); err == nil && n.Valid {
				return n.Int64
			}
		}
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	default:
		return v
	}
}
