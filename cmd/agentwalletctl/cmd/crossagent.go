package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/agentwallet/agentwallet/internal/ctlclient"
)

func newCrossAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cross-agent",
		Short: "Approve an escalated cross-agent transaction",
	}
	cmd.AddCommand(newCrossAgentApproveCommand())
	return cmd
}

func newCrossAgentApproveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <transaction-id>",
		Short: "Approve a cross-agent transaction awaiting human review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/cross-agent/transactions/"+args[0]+"/approve", nil, &out); err != nil {
				ctlclient.PrintError("approve failed: %v", err)
				return err
			}
			ctlclient.PrintSuccess("cross-agent transaction %s approved", args[0])
			return nil
		},
	}
}
