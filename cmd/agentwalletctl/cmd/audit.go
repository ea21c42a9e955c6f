package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentwallet/agentwallet/internal/ctlclient"
)

func newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Summarize or export an agent's audit trail",
	}
	cmd.AddCommand(newAuditSummaryCommand(), newAuditExportCommand())
	return cmd
}

func newAuditSummaryCommand() *cobra.Command {
	var sinceHours int
	cmd := &cobra.Command{
		Use:   "summary <agent-id>",
		Short: "Print the allow/block/escalate counts for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/agents/%s/audit/summary", args[0])
			if sinceHours > 0 {
				path += fmt.Sprintf("?since_hours=%d", sinceHours)
			}
			var out map[string]any
			if err := client().Do(context.Background(), http.MethodGet, path, nil, &out); err != nil {
				ctlclient.PrintError("summary failed: %v", err)
				return err
			}
			ctlclient.PrintSuccess("%v", out)
			return nil
		},
	}
	cmd.Flags().IntVar(&sinceHours, "since-hours", 0, "restrict the summary to the last N hours")
	return cmd
}

func newAuditExportCommand() *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "export <agent-id>",
		Short: "Export an agent's audit trail as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := client().DoRaw(context.Background(), http.MethodGet, "/v1/agents/"+args[0]+"/audit/export")
			if err != nil {
				ctlclient.PrintError("export failed: %v", err)
				return err
			}
			if outputPath == "" {
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(outputPath, data, 0o644); err != nil {
				ctlclient.PrintError("write %s: %v", outputPath, err)
				return err
			}
			ctlclient.PrintSuccess("wrote %s", outputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "file to write the CSV to (defaults to stdout)")
	return cmd
}
