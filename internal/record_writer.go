package internal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/maisondudroit/entretien"
	"go.uber.org/zap"
)

type writerPool interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// RecordWriter persists one parent row and its two sub-lists in a single transaction.
type RecordWriter struct {
	pool   writerPool
	tables entretien.TableNames
}

func NewRecordWriter(pool writerPool, tables entretien.TableNames) *RecordWriter {
	return &RecordWriter{pool: pool, tables: tables}
}

// Save inserts parent, then one child row per label (1-based positions, in
// list order) into the demande and solution tables, and commits. Labels are
// resolved to codes through the given vocabularies; unknown labels are stored
// verbatim. Any failure rolls everything back and returns a persistence error
// naming the failing statement.
func (w *RecordWriter) Save(
	ctx context.Context,
	parent entretien.ParentRecord,
	demandeLabels, solutionLabels []string,
	demandeChoices, solutionChoices *entretien.ChoiceMapping,
) (int64, error) {
	start := time.Now()
	tx, err := w.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, entretien.NewPersistenceError("begin transaction", err)
	}
	defer tx.Rollback(ctx) // no-op if committed

	query, args := buildInsertParentStatement(w.tables.Namespace, w.tables.Parent, w.tables.ParentKey, parent)
	var num int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&num); err != nil {
		return 0, entretien.NewPersistenceError("insert "+w.tables.Parent, err).WithTable(w.tables.Parent)
	}

	if err := w.insertChildren(ctx, tx, entretien.ChildDemande, num, demandeLabels, demandeChoices); err != nil {
		return 0, err
	}
	if err := w.insertChildren(ctx, tx, entretien.ChildSolution, num, solutionLabels, solutionChoices); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, entretien.NewPersistenceError("commit transaction", err)
	}

	EmitLatency(ctx, "save", w.tables.Parent, time.Since(start))
	EmitChildRows(ctx, w.tables.Demande, len(demandeLabels))
	EmitChildRows(ctx, w.tables.Solution, len(solutionLabels))

	zap.S().Infow("record saved",
		"table", w.tables.Parent,
		"num", num,
		"demandes", len(demandeLabels),
		"solutions", len(solutionLabels),
	)
	return num, nil
}

func (w *RecordWriter) insertChildren(
	ctx context.Context,
	tx pgx.Tx,
	kind entretien.ChildKind,
	num int64,
	labels []string,
	choices *entretien.ChoiceMapping,
) error {
	table := w.tables.Child(kind)
	query := buildInsertChildStatement(w.tables, table)
	for i, label := range labels {
		pos := i + 1
		code := choices.ResolveCode(label)
		if _, err := tx.Exec(ctx, query, num, pos, code); err != nil {
			return entretien.NewPersistenceError(fmt.Sprintf("insert %s #%d", table, pos), err).
				WithTable(table).
				WithDetail("label", label)
		}
	}
	return nil
}

// buildInsertParentStatement emits columns in sorted order so statements are
// stable for a given field set.
func buildInsertParentStatement(namespace, table, key string, parent entretien.ParentRecord) (string, []any) {
	target := qualifiedTable(namespace, table)
	returning := sanitizeIdentifier(key)
	if len(parent) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", target, returning), nil
	}

	names := sortedKeys(parent)
	columns := make([]string, len(names))
	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		columns[i] = sanitizeIdentifier(name)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = parent[name]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		target,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		returning,
	)
	return query, args
}

func buildInsertChildStatement(tables entretien.TableNames, table string) string {
	return fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)",
		qualifiedTable(tables.Namespace, table),
		sanitizeIdentifier(tables.ParentKey),
		sanitizeIdentifier(tables.PositionKey),
		sanitizeIdentifier(tables.NatureColumn),
	)
}
