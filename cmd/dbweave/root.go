package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbweave/dbweave/internal/database"
	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/config"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

type rootOptions struct {
	configFile string
	connect    string
	engine     string

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "dbweave",
		Short:         "Read-only query access across database engines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			slog.SetDefault(database.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to dbweave.yaml")
	root.PersistentFlags().StringVarP(&opts.connect, "connect", "c", "", "connection string")
	root.PersistentFlags().StringVar(&opts.engine, "engine", "", "override engine detection")

	root.AddCommand(
		newEnginesCommand(),
		newClassifyCommand(opts),
		newPingCommand(opts),
		newQueryCommand(opts),
		newValidateCommand(opts),
		newTablesCommand(opts),
		newSampleCommand(opts),
		newStatsCommand(opts),
		newExplainCommand(opts),
	)
	return root
}

// open builds and connects an adapter from the persistent flags, and returns
// a cleanup that disconnects it.
func (o *rootOptions) open(ctx context.Context) (adapter.Adapter, func(), error) {
	if o.connect == "" {
		return nil, nil, fmt.Errorf("--connect is required")
	}

	connCfg := adapter.ConnectionConfig{ConnectionString: o.connect}
	if o.engine != "" {
		engine, ok := dbcapabilities.ParseID(o.engine)
		if !ok {
			return nil, nil, fmt.Errorf("unknown engine %q", o.engine)
		}
		connCfg.Engine = engine
	}

	a, err := database.Create(o.cfg.ApplyTo(connCfg))
	if err != nil {
		return nil, nil, err
	}
	if !a.Connect(ctx) {
		return nil, nil, fmt.Errorf("could not connect to %s", string(a.Type()))
	}
	return a, func() { _ = a.Disconnect(context.Background()) }, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func newEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List supported engines and their features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, database.ListSupportedEngines())
		},
	}
}

func newClassifyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <connection-string>",
		Short: "Show which engine a connection string targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := dbcapabilities.ClassifyDefault(args[0], opts.cfg.Engine())
			capability := dbcapabilities.MustGet(engine)
			return printJSON(cmd, map[string]string{
				"engine": string(engine),
				"name":   capability.Name,
			})
		},
	}
}

func newPingCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test connectivity to a data source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if !a.TestConnection(cmd.Context()) {
				return fmt.Errorf("connection test failed")
			}

			version, err := a.Version(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{
				"engine":  string(a.Type()),
				"version": version,
				"status":  "ok",
			})
		},
	}
}

func newQueryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a read-only statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			result, err := a.ExecuteQuery(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <sql>",
		Short: "Check a statement without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			ok, msg := a.ValidateQuery(cmd.Context(), args[0])
			return printJSON(cmd, map[string]any{
				"valid":   ok,
				"message": msg,
			})
		},
	}
}

func newTablesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables visible on the connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			tables, err := a.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, tables)
		},
	}
}

func newSampleCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sample <table>",
		Short: "Preview rows from a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			rows, err := a.GetTableSample(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "row cap (0 uses the configured sample limit)")
	return cmd
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <table>",
		Short: "Show engine-reported statistics for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			stats, err := a.GetTableStatistics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
}

func newExplainCommand(opts *rootOptions) *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "explain <sql>",
		Short: "Show the engine's query plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			var plan *adapter.QueryPlan
			if analyze {
				plan, err = a.ExplainAnalyzeQuery(cmd.Context(), args[0])
			} else {
				plan, err = a.ExplainQuery(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, plan)
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", false, "execute the statement and report the observed plan")
	return cmd
}
