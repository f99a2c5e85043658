package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/bluescreen10/storefront/checkout"
	"github.com/bluescreen10/storefront/payphone"
	"github.com/bluescreen10/storefront/web"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checkout and order confirmation pages",
		Long: `Serve the checkout form, the payment box page and the confirmation page
the payment provider redirects to. Point the backend's payment response URL
at http://<addr>/order-confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Serve.Addr
			}

			handler := web.New(web.Deps{
				Checkout: a.orchestrator(),
				Cart:     a.cart,
				Sessions: a.session,
				Logger:   a.logger,
				NewWidget: func(w io.Writer) checkout.Widget {
					return payphone.New(w,
						payphone.WithScriptURL(a.cfg.Payment.ScriptURL),
						payphone.WithCSSURL(a.cfg.Payment.CSSURL),
					)
				},
			})

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			a.logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shut down: %w", err)
			}
			if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides serve.addr)")

	return cmd
}
