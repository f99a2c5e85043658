package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bluescreen10/storefront/apiclient"
	"github.com/bluescreen10/storefront/library"
)

func ordersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}

			orders, err := a.api.MyOrders(cmd.Context())
			if err != nil {
				return err
			}
			return printOrders(cmd.OutOrStdout(), orders, false)
		},
	}
}

func libraryCmd(a *app) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "library",
		Short: "List the books you own",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}

			orders, err := a.api.MyOrders(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			sum := library.Summarize(orders)
			fmt.Fprintf(w, "%d paid orders, %d books, %.2f spent\n\n", sum.PaidOrders, sum.BooksPurchased, sum.TotalSpent)

			if recent > 0 {
				return printOrders(w, library.Recent(orders, recent), false)
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TITLE\tCOPIES\tLAST BOUGHT\tORDERS")
			for _, b := range library.Build(orders) {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", b.Title, b.Copies, b.LastPurchased.Local().Format(time.DateOnly), strings.Join(b.OrderIDs, ","))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 0, "show the N most recent paid orders instead")

	return cmd
}

func invoiceCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "invoice [order-id]",
		Short: "Download the invoice of a paid order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}

			inv, err := a.api.DownloadInvoice(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			path := filepath.Join(dir, inv.Filename)
			if err := os.WriteFile(path, inv.Data, 0o644); err != nil {
				return fmt.Errorf("failed to save invoice: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", path, len(inv.Data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to save the invoice in")

	return cmd
}

func printOrders(w io.Writer, orders []apiclient.Order, withCustomer bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if withCustomer {
		fmt.Fprintln(tw, "ID\tDATE\tCUSTOMER\tITEMS\tAMOUNT\tSTATUS")
	} else {
		fmt.Fprintln(tw, "ID\tDATE\tITEMS\tAMOUNT\tSTATUS")
	}

	for _, o := range orders {
		items := 0
		for _, l := range o.Products {
			items += l.Quantity
		}
		date := o.CreatedAt.Local().Format(time.DateTime)

		if withCustomer {
			customer := o.Customer.Email
			if customer == "" {
				customer = o.Customer.ID
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\t%s\n", o.ID, date, customer, items, o.Amount, o.PaymentStatus)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\n", o.ID, date, items, o.Amount, o.PaymentStatus)
		}
	}
	return tw.Flush()
}
