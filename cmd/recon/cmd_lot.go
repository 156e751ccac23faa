package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xelth-com/scraprecon/internal/services/recon"
)

var lotCommit bool

var lotCmd = &cobra.Command{
	Use:   "lot",
	Short: "Inspect lot counters",
}

// lotNextCmd previews (or with --commit, issues) the next lot id for a product
var lotNextCmd = &cobra.Command{
	Use:   "next <product-code>",
	Short: "Show the next lot id for a product code",
	Long: `Shows the lot id the next commit for this product code will receive.
With --commit the counter is incremented and the id is consumed.`,
	Args: cobra.ExactArgs(1),
	RunE: runLotNext,
}

func init() {
	lotNextCmd.Flags().BoolVar(&lotCommit, "commit", false, "Consume the id")
}

func runLotNext(cmd *cobra.Command, args []string) error {
	code, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || code < 0 {
		return fmt.Errorf("invalid product code %q", args[0])
	}

	return withService(cmd.Context(), func(svc *recon.Service) error {
		var id string
		if lotCommit {
			id, err = svc.IssueLot(cmd.Context(), code)
		} else {
			id, err = svc.NextLot(cmd.Context(), code)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	})
}
