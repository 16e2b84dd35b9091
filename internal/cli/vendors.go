package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/invoiceguard/invoiceguard/internal/whitelist"
)

var (
	vendorAddedBy string
	vendorNotes   string
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "Manage the trusted-vendor whitelist",
}

var vendorsAddCmd = &cobra.Command{
	Use:   "add [vendor-name]",
	Short: "Whitelist a vendor",
	Args:  cobra.ExactArgs(1),
	RunE:  runVendorsAdd,
}

var vendorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active whitelisted vendors",
	Args:  cobra.NoArgs,
	RunE:  runVendorsList,
}

var vendorsRemoveCmd = &cobra.Command{
	Use:   "remove [vendor-id]",
	Short: "Deactivate a whitelisted vendor",
	Args:  cobra.ExactArgs(1),
	RunE:  runVendorsRemove,
}

func init() {
	vendorsAddCmd.Flags().StringVar(&vendorAddedBy, "added-by", "", "Who is whitelisting the vendor")
	vendorsAddCmd.Flags().StringVar(&vendorNotes, "notes", "", "Free-form notes")

	vendorsCmd.AddCommand(vendorsAddCmd)
	vendorsCmd.AddCommand(vendorsListCmd)
	vendorsCmd.AddCommand(vendorsRemoveCmd)
	rootCmd.AddCommand(vendorsCmd)
}

func runVendorsAdd(cmd *cobra.Command, args []string) error {
	vendor, err := whitelistService.AddVendor(cmd.Context(), whitelist.AddVendorRequest{
		VendorName: args[0],
		AddedBy:    vendorAddedBy,
		Notes:      vendorNotes,
	})
	if err != nil {
		return err
	}
	fmt.Printf("whitelisted %q (%s)\n", vendor.VendorName, vendor.ID)
	return nil
}

func runVendorsList(cmd *cobra.Command, args []string) error {
	vendors, err := whitelistService.ListVendors(cmd.Context())
	if err != nil {
		return err
	}
	if len(vendors) == 0 {
		fmt.Println("no whitelisted vendors")
		return nil
	}
	for _, v := range vendors {
		fmt.Printf("%s  %-30s  added by %s\n", v.ID, v.VendorName, v.AddedBy)
	}
	return nil
}

func runVendorsRemove(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid vendor id %q: %w", args[0], err)
	}
	vendor, err := whitelistService.DeactivateVendor(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Printf("deactivated %q (%s)\n", vendor.VendorName, vendor.ID)
	return nil
}
