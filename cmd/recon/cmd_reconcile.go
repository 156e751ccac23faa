package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xelth-com/scraprecon/internal/reconcile"
	"github.com/xelth-com/scraprecon/internal/reference"
	"github.com/xelth-com/scraprecon/internal/services/export"
)

var (
	reconcileReference   string
	reconcileInput       string
	reconcileOut         string
	reconcileRequireDesc bool
)

// reconcileCmd runs the stateless batch mode
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile an observation sheet against a reference table",
	Long: `Reads a reference table (Produto, Peso por Metro, optional Descrição do produto)
and an observation sheet (Código Material, Reserva, Quantidade, Peso, Tamanho),
computes cut length, theoretical weight and scrap for every row and writes an xlsx report.

Nothing is stored and no lot numbers are issued.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileReference, "reference", "", "Reference table (.csv or .xlsx)")
	reconcileCmd.Flags().StringVar(&reconcileInput, "input", "", "Observation sheet (.csv or .xlsx)")
	reconcileCmd.Flags().StringVarP(&reconcileOut, "out", "o", "reconciliation.xlsx", "Output workbook")
	reconcileCmd.Flags().BoolVar(&reconcileRequireDesc, "require-description", false, "Fail when the reference has no description column")
	_ = reconcileCmd.MarkFlagRequired("reference")
	_ = reconcileCmd.MarkFlagRequired("input")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	table, err := reference.LoadFile(reconcileReference, reference.Options{RequireDescription: reconcileRequireDesc})
	if err != nil {
		return err
	}
	for _, w := range table.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %s\n", w)
	}

	in, err := os.Open(reconcileInput)
	if err != nil {
		return fmt.Errorf("cannot open input: %w", err)
	}
	defer in.Close()

	rows, err := reconcile.LoadRows(reconcileInput, in)
	if err != nil {
		return err
	}

	results := make([]reconcile.Result, 0, len(rows))
	for _, raw := range rows {
		results = append(results, reconcile.ReconcileRaw(raw, table))
	}

	out, err := os.Create(reconcileOut)
	if err != nil {
		return fmt.Errorf("cannot create output: %w", err)
	}
	if err := export.WriteReconciliation(out, results); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	sum := reconcile.Summarize(results)
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d rows, measured %.2f kg, theoretical %.2f kg, scrap %.2f kg (%d flagged) -> %s\n",
		sum.Items, sum.TotalMeasuredKg, sum.TotalTheoreticalKg, sum.TotalScrapKg, sum.Flagged, reconcileOut)
	return nil
}
