package internal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/maisondudroit/entretien"
)

type readerPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// RecordReader serves the listing collaborator and reads saved records back.
type RecordReader struct {
	pool   readerPool
	tables entretien.TableNames
}

func NewRecordReader(pool readerPool, tables entretien.TableNames) *RecordReader {
	return &RecordReader{pool: pool, tables: tables}
}

// ListParents reads every parent row, newest first.
func (r *RecordReader) ListParents(ctx context.Context) (*entretien.RecordList, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC",
		qualifiedTable(r.tables.Namespace, r.tables.Parent),
		sanitizeIdentifier(r.tables.ParentKey),
	)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tables.Parent, err)
	}
	defer rows.Close()

	columns := columnNames(rows)
	list := &entretien.RecordList{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		row, err := scanRowMap(rows, columns)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", r.tables.Parent, err)
		}
		list.Rows = append(list.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", r.tables.Parent, err)
	}
	return list, nil
}

// GetRecord reads one parent row and both sub-lists ordered by position.
// Nature labels are filled in from the given vocabularies when known.
func (r *RecordReader) GetRecord(ctx context.Context, num int64, demande, solution *entretien.ChoiceMapping) (*entretien.StoredRecord, error) {
	fields, err := r.readParent(ctx, num)
	if err != nil {
		return nil, err
	}

	record := &entretien.StoredRecord{Num: num, Fields: fields}
	if record.Demandes, err = r.readChildren(ctx, entretien.ChildDemande, num, demande); err != nil {
		return nil, err
	}
	if record.Solutions, err = r.readChildren(ctx, entretien.ChildSolution, num, solution); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *RecordReader) readParent(ctx context.Context, num int64) (map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1",
		qualifiedTable(r.tables.Namespace, r.tables.Parent),
		sanitizeIdentifier(r.tables.ParentKey),
	)
	rows, err := r.pool.Query(ctx, query, num)
	if err != nil {
		return nil, fmt.Errorf("read %s %d: %w", r.tables.Parent, num, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("read %s %d: %w", r.tables.Parent, num, err)
		}
		return nil, entretien.NewNotFoundError(r.tables.Parent, num)
	}
	return scanRowMap(rows, columnNames(rows))
}

func (r *RecordReader) readChildren(ctx context.Context, kind entretien.ChildKind, num int64, choices *entretien.ChoiceMapping) ([]entretien.ChildItem, error) {
	table := r.tables.Child(kind)
	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = $1 ORDER BY %s",
		sanitizeIdentifier(r.tables.PositionKey),
		sanitizeIdentifier(r.tables.NatureColumn),
		qualifiedTable(r.tables.Namespace, table),
		sanitizeIdentifier(r.tables.ParentKey),
		sanitizeIdentifier(r.tables.PositionKey),
	)
	rows, err := r.pool.Query(ctx, query, num)
	if err != nil {
		return nil, fmt.Errorf("read %s of %d: %w", table, num, err)
	}
	defer rows.Close()

	items := []entretien.ChildItem{}
	for rows.Next() {
		var (
			pos  int32
			code *string
		)
		if err := rows.Scan(&pos, &code); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		item := entretien.ChildItem{ParentKey: num, Position: int(pos)}
		if code != nil {
			item.NatureCode = *code
			item.NatureLabel, _ = choices.Label(*code)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}
	return items, nil
}

func columnNames(rows pgx.Rows) []string {
	fds := rows.FieldDescriptions()
	names := make([]string, len(fds))
	for i, fd := range fds {
		names[i] = fd.Name
	}
	return names
}

func scanRowMap(rows pgx.Rows, columns []string) (map[string]any, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}
	row := make(map[string]any, len(columns))
	for i, name := range columns {
		if i < len(values) {
			row[name] = values[i]
		}
	}
	return row, nil
}
