package factory

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/maisondudroit/entretien"
	"github.com/maisondudroit/entretien/internal"
	"go.uber.org/zap"
)

// Pool is the subset of *pgxpool.Pool the engine needs.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// NewRecordManagerWithConfig creates a RecordManager bound to pool after
// checking that the parent and child tables exist.
//
// Usage:
//
//	config := entretien.DefaultConfig()
//	manager, err := factory.NewRecordManagerWithConfig(ctx, config, pool)
//	if err != nil {
//	    // handle error
//	}
func NewRecordManagerWithConfig(ctx context.Context, config *entretien.Config, pool Pool) (entretien.RecordManager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tables, err := listTables(ctx, pool, config.Tables.Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}
	for _, required := range []string{config.Tables.Parent, config.Tables.Demande, config.Tables.Solution} {
		if !slices.Contains(tables, required) {
			return nil, fmt.Errorf("required table %q is missing in schema %q", required, config.Tables.Namespace)
		}
	}
	zap.S().Infow("tables verified", "schema", config.Tables.Namespace, "tables", len(tables))

	introspector := internal.NewIntrospector(pool, config.Tables, config.Metadata)
	writer := internal.NewRecordWriter(pool, config.Tables)
	reader := internal.NewRecordReader(pool, config.Tables)

	return internal.NewRecordManager(config.Tables, introspector, writer, reader), nil
}

func listTables(ctx context.Context, pool Pool, namespace string) ([]string, error) {
	rows, err := pool.Query(ctx, `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tables, nil
}
