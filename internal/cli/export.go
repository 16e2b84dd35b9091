package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportStatus string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export processed invoices to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "Only export invoices with this status")
	exportCmd.Flags().StringVar(&exportOut, "out", "invoices.xlsx", "Output file path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	data, err := exportService.ExportInvoicesXLSX(cmd.Context(), exportStatus)
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", exportOut, len(data))
	return nil
}
