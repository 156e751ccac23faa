// Command recon is the offline companion of the API server: batch
// reconciliation of sheets, lot counter inspection and record maintenance.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xelth-com/scraprecon/internal/bootstrap"
	"github.com/xelth-com/scraprecon/internal/buildinfo"
	"github.com/xelth-com/scraprecon/internal/config"
	"github.com/xelth-com/scraprecon/internal/services/recon"
)

var (
	verbose bool
	log     = config.GetLogger()
)

var rootCmd = &cobra.Command{
	Use:   "recon",
	Short: "Steel bar scrap reconciliation tools",
	Long: `Offline tools for the scrap reconciliation service.

Storage settings are read from the same environment (.env) as the API server:
DB_DRIVER, SQLITE_PATH, PG_*, REDIS_URL, LOT_PREFIX, RECORD_BACKEND, SHEETS_*.`,
	Version:      buildinfo.Version(),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		} else {
			log.SetLevel(logrus.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	lotCmd.AddCommand(lotNextCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsExportCmd)
	recordsCmd.AddCommand(recordsClearCmd)
	recordsCmd.AddCommand(recordsResetCmd)

	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(lotCmd)
	rootCmd.AddCommand(recordsCmd)
}

// withService opens storage from the environment and runs fn against a service
func withService(ctx context.Context, fn func(*recon.Service) error) error {
	cfg := config.LoadTools()
	backend, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	return fn(recon.NewService(backend.Store, backend.Lots, nil, nil))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
