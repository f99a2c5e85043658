// Command storefront is a terminal client for the bookstore backend. It
// keeps the cart and the login in a local store and can serve the checkout
// pages the payment provider redirects to.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront - bookstore client",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api", "", "backend base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (overrides ./storefront.yaml)")

	rootCmd.AddCommand(loginCmd(a))
	rootCmd.AddCommand(registerCmd(a))
	rootCmd.AddCommand(logoutCmd(a))
	rootCmd.AddCommand(whoamiCmd(a))
	rootCmd.AddCommand(productsCmd(a))
	rootCmd.AddCommand(productCmd(a))
	rootCmd.AddCommand(cartCmd(a))
	rootCmd.AddCommand(checkoutCmd(a))
	rootCmd.AddCommand(confirmCmd(a))
	rootCmd.AddCommand(ordersCmd(a))
	rootCmd.AddCommand(libraryCmd(a))
	rootCmd.AddCommand(invoiceCmd(a))
	rootCmd.AddCommand(adminCmd(a))
	rootCmd.AddCommand(serveCmd(a))

	ctx, cancel := withSignals(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
