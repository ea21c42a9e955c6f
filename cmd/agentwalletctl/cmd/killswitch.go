package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/agentwallet/agentwallet/internal/ctlclient"
)

func newKillSwitchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "killswitch",
		Aliases: []string{"kill"},
		Short:   "Reset a kill switch or trip the emergency stop",
	}
	cmd.AddCommand(newKillSwitchResetCommand(), newEmergencyStopCommand(), newGlobalStopCommand())
	return cmd
}

func newKillSwitchResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <killswitch-id>",
		Short: "Reset a latched kill switch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/killswitches/"+args[0]+"/reset", nil, &out); err != nil {
				ctlclient.PrintError("reset failed: %v", err)
				return err
			}
			ctlclient.PrintSuccess("killswitch %s reset", args[0])
			return nil
		},
	}
}

func newEmergencyStopCommand() *cobra.Command {
	var walletID, agentID string
	cmd := &cobra.Command{
		Use:   "emergency-stop",
		Short: "Immediately freeze a wallet and its agent, bypassing every rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"wallet_id": walletID, "agent_id": agentID}
			var out map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/emergency-stop", body, &out); err != nil {
				ctlclient.PrintError("emergency stop failed: %v", err)
				return err
			}
			ctlclient.PrintWarn("emergency stop tripped for wallet %s / agent %s", walletID, agentID)
			return nil
		},
	}
	cmd.Flags().StringVar(&walletID, "wallet", "", "wallet id to freeze")
	cmd.Flags().StringVar(&agentID, "agent", "", "agent id to freeze")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

func newGlobalStopCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "global-stop <owner-id>",
		Short: "Immediately freeze every agent and wallet an owner controls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"reason": reason}
			var out map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/owners/"+args[0]+"/kill-switch", body, &out); err != nil {
				ctlclient.PrintError("global stop failed: %v", err)
				return err
			}
			ctlclient.PrintWarn("global stop tripped for owner %s: %v", args[0], out)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the audit trail")
	return cmd
}
