package commands

import (
	"github.com/spf13/cobra"

	"tokobesi/terminal/internal/domain"
)

func logFlags(cmd *cobra.Command, q *domain.LogQuery) {
	cmd.Flags().StringVar(&q.From, "from", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&q.To, "to", "", "end date YYYY-MM-DD")
	cmd.Flags().IntVar(&q.Limit, "limit", 100, "maximum entries")
}

func productsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "products", Short: "Product catalog"}

	var q domain.ProductQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			q.StoreID = opts.storeID
			if q.Page > 0 {
				page, err := opts.client.PagedProducts(opts.ctx(cmd), q)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), page)
			}
			products, err := opts.client.ListProducts(opts.ctx(cmd), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), products)
		},
	}
	list.Flags().StringVar(&q.Search, "search", "", "name, SKU or barcode filter")
	list.Flags().StringVar(&q.Category, "category", "", "category filter")
	list.Flags().IntVar(&q.Page, "page", 0, "page number (enables paging)")
	list.Flags().IntVar(&q.PageSize, "page-size", 50, "page size")

	var lq domain.LogQuery
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Product activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			lq.StoreID = opts.storeID
			entries, err := opts.client.ProductLogs(opts.ctx(cmd), lq)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	logFlags(logs, &lq)

	cmd.AddCommand(list, logs)
	return cmd
}

func salesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "sales", Short: "Sales history"}

	var q domain.SaleQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List sales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			q.StoreID = opts.storeID
			sales, err := opts.client.ListSales(opts.ctx(cmd), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sales)
		},
	}
	list.Flags().StringVar(&q.From, "from", "", "start date YYYY-MM-DD")
	list.Flags().StringVar(&q.To, "to", "", "end date YYYY-MM-DD")
	list.Flags().StringVar(&q.Status, "status", "", "sale status")
	list.Flags().IntVar(&q.Page, "page", 0, "page number")
	list.Flags().IntVar(&q.PageSize, "page-size", 0, "page size")

	show := &cobra.Command{
		Use:   "show <sale-id>",
		Short: "Show one sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			sale, err := opts.client.GetSale(opts.ctx(cmd), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sale)
		},
	}

	var lq domain.LogQuery
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Sale activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			lq.StoreID = opts.storeID
			entries, err := opts.client.SaleLogs(opts.ctx(cmd), lq)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	logFlags(logs, &lq)

	cmd.AddCommand(list, show, logs)
	return cmd
}
