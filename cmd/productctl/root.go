package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ProductDesk/internal/catalog"
	"ProductDesk/internal/kv"
)

type app struct {
	dbPath    string
	namespace string
	verbose   bool

	log     *zap.Logger
	backend kv.Store
	store   *catalog.Store
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "productctl",
		Short: "Manage a local product list",
		Long: `productctl keeps a list of products (title, price, tax, ads cost,
reduction, category) in a local SQLite file and saves after every change.

Numeric fields that are not numbers are stored as 0.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "productdesk.db", "SQLite file holding the product list")
	root.PersistentFlags().StringVar(&a.namespace, "namespace", "", "keep this list apart from others in the same file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log storage activity to stderr")

	root.AddCommand(
		a.withStore(newAddCmd(a)),
		a.withStore(newUpdateCmd(a)),
		a.withStore(newDeleteCmd(a)),
		a.withStore(newGetCmd(a)),
		a.withStore(newListCmd(a)),
		a.withStore(newModeCmd(a)),
		newTotalCmd(),
		newTokenCmd(),
	)
	return root
}

// withStore opens the catalog before cmd runs and closes it afterwards,
// whether or not the command fails.
func (a *app) withStore(cmd *cobra.Command) *cobra.Command {
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		a.log = newLogger(a.verbose)

		backend, err := kv.OpenSQLite(cmd.Context(), a.dbPath)
		if err != nil {
			return err
		}
		a.backend = backend
		a.store = catalog.Open(cmd.Context(), catalog.StoreDeps{
			KV:  kv.WithNamespace(backend, a.namespace),
			Log: a.log,
		})
		return nil
	}
	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			_ = a.log.Sync()
			if cerr := a.backend.Close(); err == nil {
				err = cerr
			}
		}()
		return run(cmd, args)
	}
	return cmd
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
