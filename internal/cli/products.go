package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/invoiceguard/invoiceguard/internal/products"
)

var (
	productDescription string
	productShowAll     bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manage the product catalog",
}

var productsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsAdd,
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	Args:  cobra.NoArgs,
	RunE:  runProductsList,
}

var productsRemoveCmd = &cobra.Command{
	Use:   "remove [product-id]",
	Short: "Deactivate a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsRemove,
}

func init() {
	productsAddCmd.Flags().StringVar(&productDescription, "description", "", "Product description")
	productsListCmd.Flags().BoolVar(&productShowAll, "all", false, "Include deactivated products")

	productsCmd.AddCommand(productsAddCmd)
	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsRemoveCmd)
	rootCmd.AddCommand(productsCmd)
}

func runProductsAdd(cmd *cobra.Command, args []string) error {
	product, err := productService.CreateProduct(cmd.Context(), products.CreateProductRequest{
		Name:        args[0],
		Description: productDescription,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created %q (%s)\n", product.Name, product.ID)
	return nil
}

func runProductsList(cmd *cobra.Command, args []string) error {
	list, err := productService.ListProducts(cmd.Context(), !productShowAll)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no products")
		return nil
	}
	for _, p := range list {
		state := "active"
		if !p.IsActive {
			state = "inactive"
		}
		fmt.Printf("%s  %-30s  %s\n", p.ID, p.Name, state)
	}
	return nil
}

func runProductsRemove(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid product id %q: %w", args[0], err)
	}
	if err := productService.DeactivateProduct(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("deactivated %s\n", id)
	return nil
}
