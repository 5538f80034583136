package internal

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jackc/pgx/v5"
	"github.com/maisondudroit/entretien"
	"go.uber.org/zap"
)

// catalogQuery lists live user columns of one table in declaration order.
const catalogQuery = `SELECT a.attname AS column_name,
       format_type(a.atttypid, a.atttypmod) AS data_type,
       col_description(a.attrelid, a.attnum) AS comment,
       a.attnotnull AS is_required
  FROM pg_attribute a
  JOIN pg_class c ON a.attrelid = c.oid
  JOIN pg_namespace n ON c.relnamespace = n.oid
 WHERE c.relname = $1
   AND n.nspname = $2
   AND a.attnum > 0
   AND NOT a.attisdropped
 ORDER BY a.attnum`

type catalogPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CatalogColumn is one raw row of the catalog query.
type CatalogColumn struct {
	Name         string
	DeclaredType string
	Comment      string
	Required     bool
}

// Introspector turns catalog rows into field descriptors, memoizing each
// table's result for a fixed window.
type Introspector struct {
	pool      catalogPool
	namespace string
	excluded  map[string]struct{}
	cache     *expirable.LRU[string, []entretien.FieldDescriptor]
}

// NewIntrospector builds an Introspector. A ttl of zero disables caching.
func NewIntrospector(pool catalogPool, tables entretien.TableNames, cfg entretien.MetadataConfig) *Introspector {
	in := &Introspector{
		pool:      pool,
		namespace: tables.Namespace,
		excluded:  tables.ExcludedColumns(),
	}
	if in.namespace == "" {
		in.namespace = "public"
	}
	if cfg.CacheTTL > 0 {
		size := cfg.CacheSize
		if size <= 0 {
			size = 32
		}
		in.cache = expirable.NewLRU[string, []entretien.FieldDescriptor](size, nil, cfg.CacheTTL)
	}
	return in
}

// Introspect returns the user-facing fields of table. On catalog failure it
// returns an empty slice and an error satisfying entretien.IsSchemaUnavailable.
func (in *Introspector) Introspect(ctx context.Context, table string) ([]entretien.FieldDescriptor, error) {
	key := strings.ToLower(table)
	if in.cache != nil {
		if fields, ok := in.cache.Get(key); ok {
			return fields, nil
		}
	}

	start := time.Now()
	columns, err := in.readCatalog(ctx, key)
	if err != nil {
		zap.S().Errorw("catalog query failed", "table", key, "error", err)
		return []entretien.FieldDescriptor{}, entretien.NewCatalogQueryError(key, err)
	}

	fields := make([]entretien.FieldDescriptor, 0, len(columns))
	for _, col := range columns {
		if _, skip := in.excluded[col.Name]; skip {
			continue
		}
		fields = append(fields, describeColumn(col))
	}

	elapsed := time.Since(start)
	EmitLatency(ctx, "introspect", key, elapsed)
	zap.S().Debugw("introspected table", "table", key, "fields", len(fields), "duration", elapsed)
	if in.cache != nil {
		in.cache.Add(key, fields)
	}
	return fields, nil
}

// Invalidate drops the cached fields of one table.
func (in *Introspector) Invalidate(table string) {
	if in.cache != nil {
		in.cache.Remove(strings.ToLower(table))
	}
}

func (in *Introspector) Purge() {
	if in.cache != nil {
		in.cache.Purge()
	}
}

func (in *Introspector) readCatalog(ctx context.Context, table string) ([]CatalogColumn, error) {
	rows, err := in.pool.Query(ctx, catalogQuery, table, in.namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []CatalogColumn
	for rows.Next() {
		var (
			col     CatalogColumn
			comment *string
		)
		if err := rows.Scan(&col.Name, &col.DeclaredType, &comment, &col.Required); err != nil {
			return nil, err
		}
		if comment != nil {
			col.Comment = *comment
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return columns, nil
}

func describeColumn(col CatalogColumn) entretien.FieldDescriptor {
	return entretien.FieldDescriptor{
		Name:         col.Name,
		DeclaredType: col.DeclaredType,
		Required:     col.Required,
		Choices:      ParseChoices(col.Comment),
		Group:        ExtractGroup(col.Comment),
	}
}
