package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tokobesi/terminal/internal/apiclient"
	"tokobesi/terminal/internal/domain"
)

func returnsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "returns", Short: "Return requests"}

	listing := func(use string, short string, fetch func(*apiclient.Client, context.Context, string) ([]domain.ReturnRequest, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.requireToken(); err != nil {
					return err
				}
				returns, err := fetch(opts.client, opts.ctx(cmd), opts.storeID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), returns)
			},
		}
	}

	decide := func(use string, short string, apply func(*apiclient.Client, context.Context, string, domain.ReturnDecision) (domain.ReturnRequest, error)) *cobra.Command {
		var note string
		c := &cobra.Command{
			Use:   use + " <return-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.requireToken(); err != nil {
					return err
				}
				ret, err := apply(opts.client, opts.ctx(cmd), args[0], domain.ReturnDecision{Note: note})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ret)
			},
		}
		c.Flags().StringVar(&note, "note", "", "review note")
		return c
	}

	var amount int64
	issue := &cobra.Command{
		Use:   "issue-voucher <return-id>",
		Short: "Issue a store-credit voucher for an approved return",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			voucher, err := opts.client.IssueReturnVoucher(opts.ctx(cmd), domain.IssueVoucherRequest{ReturnID: args[0], AmountCents: amount})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), voucher)
		},
	}
	issue.Flags().Int64Var(&amount, "amount", 0, "voucher amount in rupiah (default: return amount)")

	cmd.AddCommand(
		listing("pending", "Returns awaiting review", (*apiclient.Client).PendingReturns),
		listing("approved", "Approved returns", (*apiclient.Client).ApprovedReturns),
		listing("all", "All returns", (*apiclient.Client).AllReturns),
		decide("approve", "Approve a return", (*apiclient.Client).ApproveReturn),
		decide("reject", "Reject a return", (*apiclient.Client).RejectReturn),
		issue,
	)
	return cmd
}

func vouchersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "vouchers", Short: "Store-credit vouchers"}

	verify := &cobra.Command{
		Use:   "verify <code>",
		Short: "Check a voucher balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			voucher, err := opts.client.VerifyVoucher(opts.ctx(cmd), domain.VoucherVerifyRequest{Code: args[0], StoreID: opts.storeID})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), voucher)
		},
	}

	sale := &cobra.Command{
		Use:   "sale <sale-id>",
		Short: "Vouchers issued against a sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			vouchers, err := opts.client.VouchersForSale(opts.ctx(cmd), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), vouchers)
		},
	}

	cmd.AddCommand(verify, sale)
	return cmd
}
