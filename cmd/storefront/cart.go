package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bluescreen10/storefront/cart"
)

func cartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCart(cmd.OutOrStdout(), a.cart)
		},
	})

	var qty int
	add := &cobra.Command{
		Use:   "add [product-id]",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cart.ValidID(args[0]) {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			if qty < 1 {
				return fmt.Errorf("quantity must be at least 1")
			}

			p, err := a.api.Product(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := a.cart.AddItem(cart.LineItem{ID: p.ID, Title: p.Title, Price: p.Price, Image: p.Image}); err != nil {
				return err
			}
			if qty > 1 {
				if err := a.cart.UpdateQuantity(p.ID, quantityOf(a.cart, p.ID)+qty-1); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%d in cart)\n", p.Title, quantityOf(a.cart, p.ID))
			return nil
		},
	}
	add.Flags().IntVarP(&qty, "quantity", "q", 1, "copies to add")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove [product-id]",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cart.RemoveItem(args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [product-id] [quantity]",
		Short: "Set the quantity of a line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return a.cart.UpdateQuantity(args[0], n)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cart.Clear()
		},
	})

	return cmd
}

func quantityOf(c *cart.Cart, id string) int {
	for _, item := range c.Items() {
		if item.ID == id {
			return item.Quantity
		}
	}
	return 0
}

func printCart(w io.Writer, c *cart.Cart) error {
	if c.IsEmpty() {
		fmt.Fprintln(w, "Cart is empty")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range c.Items() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.2f\n", item.ID, item.Title, item.Quantity, item.Price, item.Subtotal())
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%.2f\n", c.ItemCount(), c.Total())
	return tw.Flush()
}
