package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bluescreen10/storefront/admin"
	"github.com/bluescreen10/storefront/apiclient"
)

const exportPageSize = 100

func adminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer products, users and orders (admin role required)",
	}

	cmd.AddCommand(adminDashboardCmd(a))
	cmd.AddCommand(adminOverviewCmd(a))
	cmd.AddCommand(adminProductsCmd(a))
	cmd.AddCommand(adminUsersCmd(a))
	cmd.AddCommand(adminOrdersCmd(a))

	return cmd
}

// adminRunE checks the role before running fn.
func adminRunE(a *app, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := admin.RequireAdmin(a.session); err != nil {
			return err
		}
		return fn(cmd, args)
	}
}

func adminDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the store counters",
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			d, err := a.api.AdminDashboard(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Users:    %d\n", d.UsersCount)
			fmt.Fprintf(w, "Products: %d\n", d.ProductsCount)
			fmt.Fprintf(w, "Orders:   %d\n", d.OrdersCount)
			fmt.Fprintf(w, "Revenue:  %.2f\n", d.Revenue)
			return nil
		}),
	}
}

func adminOverviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show counters, users and order statistics",
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			ov, err := admin.LoadOverview(cmd.Context(), a.api)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Users:    %d (%d listed)\n", ov.Dashboard.UsersCount, len(ov.Users))
			fmt.Fprintf(w, "Products: %d\n", ov.Dashboard.ProductsCount)
			fmt.Fprintf(w, "Orders:   %d paid, %d pending, %d failed of %d\n", ov.Stats.Paid, ov.Stats.Pending, ov.Stats.Failed, ov.Stats.Total)
			fmt.Fprintf(w, "Revenue:  %.2f\n", ov.Stats.Revenue)
			return nil
		}),
	}
}

func adminProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage products",
	}

	var page, limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			products, err := a.api.AdminProducts(cmd.Context(), page, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tPRICE")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", p.ID, p.Title, p.Year, p.Price)
			}
			return tw.Flush()
		}),
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVarP(&limit, "limit", "n", 20, "page size")
	cmd.AddCommand(list)

	var in apiclient.ProductInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			if err := admin.ValidateProduct(in); err != nil {
				return err
			}
			p, err := a.api.AdminCreateProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", p.ID)
			return nil
		}),
	}
	productFlags(create, &in)
	cmd.AddCommand(create)

	var upd apiclient.ProductInput
	update := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a product; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			cur, err := a.api.Product(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			merged := apiclient.ProductInput{
				Title:      cur.Title,
				Synopsis:   cur.Description,
				Authors:    cur.Authors,
				Year:       cur.Year,
				Price:      cur.Price,
				CoverImage: cur.Image,
				PDFURL:     cur.PDFURL,
				Category:   cur.Category,
			}
			mergeChanged(cmd, &merged, upd)

			if err := admin.ValidateProduct(merged); err != nil {
				return err
			}
			if _, err := a.api.AdminUpdateProduct(cmd.Context(), args[0], merged); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
			return nil
		}),
	}
	productFlags(update, &upd)
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			return a.api.AdminDeleteProduct(cmd.Context(), args[0])
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export [file.xlsx]",
		Short: "Export every product to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			var all []apiclient.Product
			for page := 1; ; page++ {
				products, err := a.api.AdminProducts(cmd.Context(), page, exportPageSize)
				if err != nil {
					return err
				}
				all = append(all, products...)
				if len(products) < exportPageSize {
					break
				}
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if err := admin.WriteProductsXLSX(f, all); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s\n", len(all), args[0])
			return f.Close()
		}),
	})

	var dryRun bool
	imp := &cobra.Command{
		Use:   "import [file.xlsx]",
		Short: "Create or update products from a spreadsheet",
		Long: `Create or update products from a spreadsheet in the export layout. Rows
with an ID update that product; rows without one create a new product.
Invalid rows are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			st, err := f.Stat()
			if err != nil {
				return err
			}

			res, err := admin.ReadProductsXLSX(f, st.Size())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			lines := make([]int, 0, len(res.Skipped))
			for line := range res.Skipped {
				lines = append(lines, line)
			}
			sort.Ints(lines)
			for _, line := range lines {
				fmt.Fprintf(w, "line %d skipped: %s\n", line, res.Skipped[line])
			}

			created, updated := 0, 0
			for _, row := range res.Rows {
				if dryRun {
					continue
				}
				if row.ID != "" {
					if _, err := a.api.AdminUpdateProduct(cmd.Context(), row.ID, row.Input); err != nil {
						return fmt.Errorf("line %d: %w", row.Line, err)
					}
					updated++
					continue
				}
				if _, err := a.api.AdminCreateProduct(cmd.Context(), row.Input); err != nil {
					return fmt.Errorf("line %d: %w", row.Line, err)
				}
				created++
			}

			fmt.Fprintf(w, "%d valid rows, %d created, %d updated, %d skipped\n", len(res.Rows), created, updated, len(res.Skipped))
			return nil
		}),
	}
	imp.Flags().BoolVar(&dryRun, "dry-run", false, "validate without calling the backend")
	cmd.AddCommand(imp)

	return cmd
}

func productFlags(cmd *cobra.Command, in *apiclient.ProductInput) {
	fs := cmd.Flags()
	fs.StringVar(&in.Title, "title", "", "title")
	fs.StringVar(&in.Synopsis, "synopsis", "", "synopsis")
	fs.StringVar(&in.Authors, "authors", "", "authors")
	fs.IntVar(&in.Year, "year", 0, "publication year")
	fs.Float64Var(&in.Price, "price", 0, "price")
	fs.StringVar(&in.CoverImage, "cover", "", "cover image URL")
	fs.StringVar(&in.PDFURL, "pdf", "", "PDF URL")
	fs.StringVar(&in.Category, "category", "", "category")
}

// mergeChanged copies the fields whose flag was set from src into dst.
func mergeChanged(cmd *cobra.Command, dst *apiclient.ProductInput, src apiclient.ProductInput) {
	fs := cmd.Flags()
	if fs.Changed("title") {
		dst.Title = src.Title
	}
	if fs.Changed("synopsis") {
		dst.Synopsis = src.Synopsis
	}
	if fs.Changed("authors") {
		dst.Authors = src.Authors
	}
	if fs.Changed("year") {
		dst.Year = src.Year
	}
	if fs.Changed("price") {
		dst.Price = src.Price
	}
	if fs.Changed("cover") {
		dst.CoverImage = src.CoverImage
	}
	if fs.Changed("pdf") {
		dst.PDFURL = src.PDFURL
	}
	if fs.Changed("category") {
		dst.Category = src.Category
	}
}

func adminUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			users, err := a.api.AdminUsers(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
			}
			return tw.Flush()
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-role [user-id] [user|admin]",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			role := apiclient.Role(args[1])
			if !role.Valid() {
				return fmt.Errorf("invalid role %q", args[1])
			}
			u, err := a.api.AdminUpdateUserRole(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
			return nil
		}),
	})

	return cmd
}

func adminOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every order",
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			orders, err := a.api.AdminOrders(cmd.Context())
			if err != nil {
				return err
			}
			return printOrders(cmd.OutOrStdout(), orders, true)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status [order-id] [PENDING|PAID|FAILED]",
		Short: "Change an order's payment status",
		Args:  cobra.ExactArgs(2),
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			if !admin.ValidStatus(args[1]) {
				return fmt.Errorf("invalid status %q", args[1])
			}
			o, err := a.api.AdminUpdateOrderStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", o.ID, o.PaymentStatus)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export [file.xlsx]",
		Short: "Export every order to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: adminRunE(a, func(cmd *cobra.Command, args []string) error {
			orders, err := a.api.AdminOrders(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if err := admin.WriteOrdersXLSX(f, orders); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d orders to %s\n", len(orders), args[0])
			return f.Close()
		}),
	})

	return cmd
}
