package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/agentwallet/agentwallet/internal/ctlclient"
)

func newDeadManCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadman",
		Short: "Trigger, unfreeze, freeze, or terminate an agent's lineage",
	}
	cmd.AddCommand(
		newDeadManTriggerCommand(),
		newDeadManUnfreezeCommand(),
		newAgentFreezeCommand(),
		newAgentTerminateCommand(),
	)
	return cmd
}

func newDeadManTriggerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <agent-id>",
		Short: "Manually trigger the dead-man switch for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/agents/"+args[0]+"/deadman/trigger", nil, &out); err != nil {
				ctlclient.PrintError("trigger failed: %v", err)
				return err
			}
			ctlclient.PrintWarn("dead-man switch triggered for agent %s", args[0])
			return nil
		},
	}
}

func newDeadManUnfreezeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unfreeze <agent-id>",
		Short: "Clear a dead-man freeze and resume the agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/agents/"+args[0]+"/deadman/unfreeze", nil, &out); err != nil {
				ctlclient.PrintError("unfreeze failed: %v", err)
				return err
			}
			ctlclient.PrintSuccess("agent %s unfrozen", args[0])
			return nil
		},
	}
}

func newAgentFreezeCommand() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "freeze <agent-id>",
		Short: "Operator freeze of an agent, bypassing the dead-man ladder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"cascade": cascade}
			var out map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/agents/"+args[0]+"/freeze", body, &out); err != nil {
				ctlclient.PrintError("freeze failed: %v", err)
				return err
			}
			ctlclient.PrintWarn("frozen: %v", out["frozen"])
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also freeze every descendant in the spawn lineage")
	return cmd
}

func newAgentTerminateCommand() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "terminate <agent-id>",
		Short: "Irreversibly terminate an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"cascade": cascade}
			var out map[string]any
			if err := client().Do(context.Background(), http.MethodPost, "/v1/agents/"+args[0]+"/terminate", body, &out); err != nil {
				ctlclient.PrintError("terminate failed: %v", err)
				return err
			}
			ctlclient.PrintError("terminated: %v", out["terminated"])
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also terminate every descendant in the spawn lineage")
	return cmd
}
