// Package cmd provides the pricectl commands.
package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Simplici0/tarifario/internal/config"
	"github.com/Simplici0/tarifario/internal/db"
	"github.com/Simplici0/tarifario/internal/logger"
	"github.com/Simplici0/tarifario/internal/migrations"
	"github.com/Simplici0/tarifario/internal/store"
)

// app is the state shared by every subcommand once the root pre-run has
// loaded config and opened the database.
type app struct {
	cfg      config.Config
	log      *logger.Logger
	database *sql.DB
	store    *store.Store

	dbPath  string
	verbose bool
}

// newRootCmd builds the command tree. The caller closes the returned app
// once the command has run.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "pricectl",
		Short: "Quote and bulk-edit the price list",
		Long: `pricectl works on the same SQLite price list as the API server.

Examples:
  pricectl migrate
  pricectl quote --sku SKU-1 --qty 12 --tier oro --term 30
  pricectl ladder --sku SKU-1
  pricectl bulk --op percentage --value 5 --field price_retail
  pricectl bulk --op sync_wholesale --value 20 --field price_retail --commit --reason "align wholesale"
  pricectl rules add --tier plata --discount 4 --brand acme`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (default is TARIFARIO_DB_PATH)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newQuoteCmd(a),
		newLadderCmd(a),
		newBulkCmd(a),
		newRulesCmd(a),
	)
	return root, a
}

// Execute runs the CLI.
func Execute() error {
	root, a := newRootCmd()
	defer a.close()
	return root.Execute()
}

func (a *app) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg

	level := logger.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = logger.ParseLevel("debug")
	}
	a.log = logger.New(logger.Options{
		ServiceName: "pricectl",
		Level:       level,
		Format:      "console",
		Output:      cmd.ErrOrStderr(),
	})
	for _, warning := range cfg.Warnings() {
		a.log.Debug(cmd.Context(), warning)
	}
	migrations.SetLogger(a.log)

	database, err := db.OpenContext(cmd.Context(), cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.database = database
	a.store = store.New(database, a.log)

	if cfg.AutoMigrate && cmd.Name() != "migrate" {
		if err := migrations.Up(database); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close() {
	if a.database == nil {
		return
	}
	if err := a.database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close database: %v\n", err)
	}
	a.database = nil
}

func joinSKUs(skus []string) string {
	if len(skus) == 0 {
		return "-"
	}
	return strings.Join(skus, ", ")
}
