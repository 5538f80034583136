package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maisondudroit/entretien"
	"github.com/maisondudroit/entretien/factory"
	"github.com/maisondudroit/entretien/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliEnv carries the loaded configuration to every subcommand.
type cliEnv struct {
	configPath string
	config     *entretien.Config
}

func (e *cliEnv) pool(ctx context.Context) (*pgxpool.Pool, error) {
	return internal.NewPool(ctx, e.config.Database)
}

// manager opens a pool and wires a RecordManager on it. The caller closes the pool.
func (e *cliEnv) manager(ctx context.Context) (entretien.RecordManager, *pgxpool.Pool, error) {
	pool, err := e.pool(ctx)
	if err != nil {
		return nil, nil, err
	}
	manager, err := factory.NewRecordManagerWithConfig(ctx, e.config, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return manager, pool, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		zap.S().Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}
	root := &cobra.Command{
		Use:           "entretien-tools",
		Short:         "Operator tools for the entretien form engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := entretien.LoadConfig(env.configPath)
			if err != nil {
				return err
			}
			config.ApplyEnv()
			if err := config.Validate(); err != nil {
				return err
			}
			env.config = config

			logger, err := internal.NewLogger(entretien.LoggingConfig{Level: config.Logging.Level, Format: "console"})
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&env.configPath, "config", os.Getenv("CONFIG_FILE"), "YAML configuration file")

	root.AddCommand(
		newInitDBCmd(env),
		newPingCmd(env),
		newDescribeCmd(env),
		newListCmd(env),
		newFillCmd(env),
	)
	return root
}

func newPingCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the database is reachable and the entretien tables exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := internal.PostgresHealthCheck(cmd.Context(), env.config.Database.ConnString(), env.config.Database.Timeout, env.config.Tables); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newDescribeCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [table]",
		Short: "Print the form schema recovered from a table's column comments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := env.config.Tables.Parent
			if len(args) == 1 {
				table = args[0]
			}
			ctx := cmd.Context()
			pool, err := env.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			introspector := internal.NewIntrospector(pool, env.config.Tables, entretien.MetadataConfig{})
			fields, err := introspector.Introspect(ctx, table)
			if err != nil {
				return err
			}
			printFormSchema(cmd, internal.BuildFormSchema(table, fields))
			return nil
		},
	}
}

func printFormSchema(cmd *cobra.Command, schema entretien.FormSchema) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()
	for _, group := range schema.Groups {
		fmt.Fprintf(w, "[%s]\n", group.Name)
		for _, f := range group.Fields {
			required := ""
			if f.Required {
				required = "required"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", f.Name, f.DeclaredType, f.Widget(), required)
			for _, c := range f.Choices.Choices() {
				fmt.Fprintf(w, "    \t%s\t%s\t\n", c.Code, c.Label)
			}
		}
	}
}

func newListCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every recorded entretien, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manager, pool, err := env.manager(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			list, err := manager.List(ctx)
			if err != nil {
				return err
			}
			printRecordList(cmd, list)
			return nil
		},
	}
}

func printRecordList(cmd *cobra.Command, list *entretien.RecordList) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()
	for i, col := range list.Columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, col)
	}
	fmt.Fprintln(w)
	for _, row := range list.Rows {
		for i, col := range list.Columns {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			if v := row[col]; v != nil {
				fmt.Fprint(w, v)
			}
		}
		fmt.Fprintln(w)
	}
}
