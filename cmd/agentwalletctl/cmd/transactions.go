package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/agentwallet/agentwallet/internal/ctlclient"
)

func newTransactionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transaction",
		Short: "Approve, reject, or inspect pending transactions",
	}
	cmd.AddCommand(newTransactionApproveCommand(), newTransactionRejectCommand(), newTransactionGetCommand())
	return cmd
}

func newTransactionApproveCommand() *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "approve <transaction-id>",
		Short: "Approve a transaction awaiting approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"operator": operator}
			var tx map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/transactions/"+args[0]+"/approve", body, &tx); err != nil {
				ctlclient.PrintError("approve failed: %v", err)
				return err
			}
			ctlclient.PrintSuccess("transaction %s approved", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "operator identity recorded in the audit trail")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}

func newTransactionRejectCommand() *cobra.Command {
	var operator, reason string
	cmd := &cobra.Command{
		Use:   "reject <transaction-id>",
		Short: "Reject a transaction awaiting approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"operator": operator, "reason": reason}
			var tx map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/transactions/"+args[0]+"/reject", body, &tx); err != nil {
				ctlclient.PrintError("reject failed: %v", err)
				return err
			}
			ctlclient.PrintWarn("transaction %s rejected", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "operator identity recorded in the audit trail")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the audit trail")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}

func newTransactionGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <transaction-id>",
		Short: "Print a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tx map[string]any
			if err := client().Do(context.Background(), http.MethodGet, "/v1/transactions/"+args[0], nil, &tx); err != nil {
				ctlclient.PrintError("get failed: %v", err)
				return err
			}
			ctlclient.PrintSuccess("%v", tx)
			return nil
		},
	}
}
