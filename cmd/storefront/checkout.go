package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bluescreen10/storefront/checkout"
	"github.com/bluescreen10/storefront/payphone"
)

func (a *app) orchestrator() *checkout.Orchestrator {
	return checkout.New(a.api, a.cart,
		checkout.WithLogger(a.logger),
		checkout.WithMountPoint(a.cfg.Payment.MountPoint),
	)
}

func checkoutCmd(a *app) *cobra.Command {
	var (
		contact checkout.Contact
		out     string
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Start paying for the cart",
		Long: `Request a payment configuration for the cart and write the page hosting
the payment box. Open the page in a browser to pay; the provider then
redirects to the confirmation URL (see 'storefront serve' and 'storefront
confirm').`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			box := payphone.New(f,
				payphone.WithScriptURL(a.cfg.Payment.ScriptURL),
				payphone.WithCSSURL(a.cfg.Payment.CSSURL),
			)

			hs, err := a.orchestrator().Begin(cmd.Context(), contact, box)
			if err != nil {
				f.Close()
				os.Remove(out)
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Order:        %s\n", hs.OrderID)
			fmt.Fprintf(w, "Transaction:  %s\n", hs.ClientTransactionID)
			if hs.ResponseURL != "" {
				fmt.Fprintf(w, "Redirects to: %s\n", hs.ResponseURL)
			}
			fmt.Fprintf(w, "Open %s in a browser to pay.\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&contact.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&contact.Email, "email", "", "email")
	cmd.Flags().StringVar(&contact.Phone, "phone", "", "phone with country code, e.g. +593...")
	cmd.Flags().StringVar(&contact.DocumentID, "document", "", "identity document number")
	cmd.Flags().StringVarP(&out, "out", "o", "payment.html", "where to write the payment page")

	return cmd
}

func confirmCmd(a *app) *cobra.Command {
	var params checkout.ConfirmParams

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm a payment from the redirect parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.orchestrator().Confirm(cmd.Context(), params)
			if err != nil && !res.Success {
				var abandoned *checkout.PaymentAbandonedError
				if errors.As(err, &abandoned) {
					return fmt.Errorf("payment not completed: %w", err)
				}
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Payment confirmed")
			if o := res.Order; o != nil {
				fmt.Fprintf(w, "Order:  %s  %.2f  %s\n", o.ID, o.Amount, o.PaymentStatus)
			}
			if t := res.Transaction; t != nil {
				fmt.Fprintf(w, "Card:   %s ****%s  auth %s\n", t.CardBrand, t.LastDigits, t.AuthorizationCode)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&params.ID, "id", "", "transaction id from the redirect")
	cmd.Flags().StringVar(&params.ClientTransactionID, "client-transaction-id", "", "client transaction id from the redirect")

	return cmd
}
