package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/agentwallet/agentwallet/internal/ctlclient"
)

func newSpawnCommand() *cobra.Command {
	var childID string
	var maxSpendRatio, maxTxRatio float64
	cmd := &cobra.Command{
		Use:   "spawn <parent-agent-id>",
		Short: "Spawn a child agent under a parent's spawn governor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"child_id":              childID,
				"max_spend_ratio":       maxSpendRatio,
				"max_transaction_ratio": maxTxRatio,
			}
			var out map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/agents/"+args[0]+"/spawn", body, &out); err != nil {
				ctlclient.PrintError("spawn failed: %v", err)
				return err
			}
			ctlclient.PrintSuccess("spawned %s under %s", childID, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&childID, "child-id", "", "id of the agent being spawned")
	cmd.Flags().Float64Var(&maxSpendRatio, "max-spend-ratio", 1.0, "child's spend ceiling as a ratio of the parent's")
	cmd.Flags().Float64Var(&maxTxRatio, "max-transaction-ratio", 1.0, "child's per-transaction ceiling as a ratio of the parent's")
	_ = cmd.MarkFlagRequired("child-id")
	return cmd
}
