package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bluescreen10/storefront/catalog"
)

func productsCmd(a *app) *cobra.Command {
	var (
		page, limit int
		q           catalog.Query
	)

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Long: `List the catalog. The search text is sent to the backend; category,
price range and sort are applied locally to the returned page.

Sort orders: relevance, price-low, price-high, title.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := a.api.Products(cmd.Context(), page, limit, q.Search)
			if err != nil {
				return err
			}

			products = catalog.Filter(products, q)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tAUTHORS\tCATEGORY\tPRICE")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n", p.ID, p.Title, p.Authors, p.Category, p.Price)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "page size")
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "search text")
	cmd.Flags().StringVarP(&q.Category, "category", "c", "", "category filter")
	cmd.Flags().Float64Var(&q.MinPrice, "min-price", 0, "minimum price")
	cmd.Flags().Float64Var(&q.MaxPrice, "max-price", 0, "maximum price (0 for none)")
	cmd.Flags().StringVar(&q.Sort, "sort", catalog.SortRelevance, "sort order")

	cmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List the categories of the first catalog page",
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := a.api.Products(cmd.Context(), 1, 100, "")
			if err != nil {
				return err
			}
			for _, c := range catalog.Categories(products) {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	})

	return cmd
}

func productCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product [id]",
		Short: "Show a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.api.Product(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", p.Title)
			fmt.Fprintf(out, "  Authors:  %s\n", p.Authors)
			fmt.Fprintf(out, "  Year:     %d\n", p.Year)
			fmt.Fprintf(out, "  Category: %s\n", p.Category)
			fmt.Fprintf(out, "  Price:    %.2f\n", p.Price)
			if p.Image != "" {
				fmt.Fprintf(out, "  Cover:    %s\n", a.api.FileURL(p.Image))
			}
			if p.Description != "" {
				fmt.Fprintf(out, "\n%s\n", p.Description)
			}
			return nil
		},
	}
}
