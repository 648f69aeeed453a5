package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tokobesi/terminal/internal/domain"
	"tokobesi/terminal/internal/receipt"
)

func settingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Store settings"}

	discounts := &cobra.Command{
		Use:   "discounts",
		Short: "List named discount rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			rules, err := opts.client.DiscountRules(opts.ctx(cmd), opts.storeID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rules)
		},
	}

	var inactive bool
	setDiscount := &cobra.Command{
		Use:   "set-discount <name> <percent>",
		Short: "Create or update a named discount rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			percent, err := strconv.ParseFloat(args[1], 64)
			if err != nil || percent < 0 || percent > 100 {
				return fmt.Errorf("percent must be a number between 0 and 100")
			}
			saved, err := opts.client.SaveDiscountSetting(opts.ctx(cmd), domain.DiscountSetting{
				StoreID: opts.storeID,
				Name:    args[0],
				Percent: percent,
				Active:  !inactive,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), saved)
		},
	}
	setDiscount.Flags().BoolVar(&inactive, "inactive", false, "save the rule disabled")

	cmd.AddCommand(discounts, setDiscount)
	return cmd
}

func reportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Sales reports"}

	var date string
	var asCSV bool
	daily := &cobra.Command{
		Use:   "daily",
		Short: "Daily sales summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			report, err := opts.client.DailySales(opts.ctx(cmd), opts.storeID, date)
			if err != nil {
				return err
			}
			if asCSV {
				_, err = fmt.Fprint(cmd.OutOrStdout(), receipt.DailySalesCSV(report))
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	daily.Flags().StringVar(&date, "date", "", "report date YYYY-MM-DD (default today)")
	daily.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of JSON")

	var from, to string
	profit := &cobra.Command{
		Use:   "profit",
		Short: "Revenue, cost and margin over a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			if to < from {
				return fmt.Errorf("--to must not be before --from")
			}
			summary, err := opts.client.ProfitSummary(opts.ctx(cmd), opts.storeID, from, to)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	profit.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD")
	profit.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD")
	_ = profit.MarkFlagRequired("from")
	_ = profit.MarkFlagRequired("to")

	cmd.AddCommand(daily, profit)
	return cmd
}

func dashboardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Today's dashboard figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			stats, err := opts.client.DashboardStats(opts.ctx(cmd), opts.storeID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func storesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			stores, err := opts.client.ListStores(opts.ctx(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stores)
		},
	}
}

func usersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			users, err := opts.client.ListUsers(opts.ctx(cmd), opts.storeID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), users)
		},
	}
}
