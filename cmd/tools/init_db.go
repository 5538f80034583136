package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maisondudroit/entretien"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInitDBCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the entretien, demande and solution tables with their column comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := env.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			return initDatabase(ctx, pool, env.config.Tables)
		},
	}
}

func initDatabase(ctx context.Context, pool *pgxpool.Pool, tables entretien.TableNames) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := withTx(ctx, conn, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements(tables) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	zap.S().Infow("database initialized", "schema", tables.Namespace, "parent", tables.Parent)
	return nil
}

// schemaStatements returns the DDL for the three tables. Choice vocabularies
// and Rubrique tags live in the column comments, which is what the form
// engine reads back.
func schemaStatements(t entretien.TableNames) []string {
	parent := quoteTable(t.Namespace, t.Parent)
	key := quoteIdentifier(t.ParentKey)
	pos := quoteIdentifier(t.PositionKey)
	nature := quoteIdentifier(t.NatureColumn)

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		%s           SERIAL PRIMARY KEY,
		date         DATE NOT NULL,
		mode         VARCHAR(2),
		duree        SMALLINT,
		sexe         VARCHAR(2) NOT NULL,
		age          VARCHAR(2),
		nb_enfants   SMALLINT,
		commune      VARCHAR(80),
		observations TEXT
	)`, parent, key),
	}

	comments := []struct{ column, comment string }{
		{"date", "Date de l'entretien, Rubrique Entretien"},
		{"mode", "Mode d'entretien (1:Sur RDV; 2:Sans RDV; 3:Téléphonique), Rubrique Entretien"},
		{"duree", "Durée (1:Moins de 15 min; 2:15 à 30 min; 3:30 à 45 min; 4:Plus de 45 min), Rubrique Entretien"},
		{"sexe", "Sexe (1:Homme; 2:Femme; 3:Couple; 4:Professionnel), Rubrique Usager"},
		{"age", "Age (1:Moins de 18 ans; 2:18-25 ans; 3:26-40 ans; 4:41-60 ans; 5:Plus de 60 ans), Rubrique Usager"},
		{"nb_enfants", "Nombre d'enfants (Enfant(s) à charge), Rubrique Usager"},
		{"commune", "Commune de résidence, Rubrique Usager"},
		{"observations", "Observations libres"},
	}
	for _, c := range comments {
		stmts = append(stmts, commentOn(parent, c.column, c.comment))
	}

	children := []struct {
		table, comment string
	}{
		{t.Demande, "Nature de la demande (FAM:Droit de la famille; DIV:Divorce; LOG:Logement; TRA:Droit du travail; CON:Consommation; AUT:Autre)"},
		{t.Solution, "Nature de la solution (INF:Information juridique; ORI:Orientation; MED:Médiation; RED:Aide à la rédaction; AUT:Autre)"},
	}
	for _, child := range children {
		table := quoteTable(t.Namespace, child.table)
		stmts = append(stmts,
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		%s INTEGER NOT NULL REFERENCES %s (%s) ON DELETE CASCADE,
		%s SMALLINT NOT NULL,
		%s VARCHAR(3) NOT NULL,
		PRIMARY KEY (%s, %s)
	)`, table, key, parent, key, pos, nature, key, pos),
			commentOn(table, t.NatureColumn, child.comment),
		)
	}
	return stmts
}

func commentOn(table, column, comment string) string {
	return fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", table, quoteIdentifier(column), quoteLiteral(comment))
}

func withTx(ctx context.Context, conn *pgxpool.Conn, fn func(pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
