package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xelth-com/scraprecon/internal/services/export"
	"github.com/xelth-com/scraprecon/internal/services/recon"
)

var (
	recordsOut   string
	clearConfirm bool
	resetConfirm bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Maintain stored observation records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored records, newest first",
	RunE:  runRecordsList,
}

var recordsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored records to an xlsx file",
	RunE:  runRecordsExport,
}

var recordsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every record (lot counters are kept)",
	RunE:  runRecordsClear,
}

var recordsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every record and restart all lot counters",
	RunE:  runRecordsReset,
}

func init() {
	recordsExportCmd.Flags().StringVarP(&recordsOut, "out", "o", "registros.xlsx", "Output workbook")
	recordsClearCmd.Flags().BoolVar(&clearConfirm, "yes", false, "Confirm the deletion")
	recordsResetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "Confirm the deletion")
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	return withService(cmd.Context(), func(svc *recon.Service) error {
		records, sum, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLOT\tPRODUCT\tQTY\tMEASURED\tTHEORETICAL\tSCRAP\tSTATUS")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%s\n",
				r.ID, r.LotID, r.ProductCode, r.Quantity, r.MeasuredWeightKg, r.TheoreticalWeightKg, r.ScrapKg, r.Status)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d records, scrap %.2f kg\n", sum.Items, sum.TotalScrapKg)
		return nil
	})
}

func runRecordsExport(cmd *cobra.Command, args []string) error {
	return withService(cmd.Context(), func(svc *recon.Service) error {
		records, _, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}

		out, err := os.Create(recordsOut)
		if err != nil {
			return fmt.Errorf("cannot create output: %w", err)
		}
		if err := export.WriteRecords(out, records); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %d records -> %s\n", len(records), recordsOut)
		return nil
	})
}

func runRecordsClear(cmd *cobra.Command, args []string) error {
	// flag values outlive a single Execute when the command tree is reused
	defer func() { clearConfirm = false }()
	if !clearConfirm {
		return fmt.Errorf("refusing to delete records without --yes")
	}
	return withService(cmd.Context(), func(svc *recon.Service) error {
		if err := svc.ClearRecords(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "🧹 Records cleared, lot counters kept")
		return nil
	})
}

func runRecordsReset(cmd *cobra.Command, args []string) error {
	defer func() { resetConfirm = false }()
	if !resetConfirm {
		return fmt.Errorf("refusing to reset without --yes")
	}
	return withService(cmd.Context(), func(svc *recon.Service) error {
		if err := svc.ResetAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "🧨 Records and lot counters reset")
		return nil
	})
}
