// Package cmd assembles the agentwalletctl command tree. Modeled on
// echoctl's NewEchoCtlCommand shape, without its templates/genericclioptions
// scaffolding since agentwalletctl is a small operator CLI, not a plugin
// host.
package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentwallet/agentwallet/internal/ctlclient"
)

type rootFlags struct {
	server string
	token  string
}

var flags = &rootFlags{}

// NewDefaultAgentWalletCtlCommand creates the `agentwalletctl` command
// wired to the process's standard streams.
func NewDefaultAgentWalletCtlCommand() *cobra.Command {
	return NewAgentWalletCtlCommand(os.Stdin, os.Stdout, os.Stderr)
}

// NewAgentWalletCtlCommand builds the root command and registers every
// subcommand group.
func NewAgentWalletCtlCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "agentwalletctl",
		Short: "agentwalletctl operates an AgentWallet gateway from the command line",
		Long: `agentwalletctl is the operator CLI for AgentWallet.

It approves or rejects pending transactions, resets kill switches,
trips the emergency stop, freezes or terminates runaway agent lineages,
spawns child agents, and exports the audit trail — all against a
running agentwalletd instance.`,
	}

	persistent := root.PersistentFlags()
	persistent.StringVar(&flags.server, "server", "http://127.0.0.1:8080", "agentwalletd base URL")
	persistent.StringVar(&flags.token, "token", "", "bearer token for the calling owner or agent")
	_ = viper.BindPFlags(persistent)
	viper.SetEnvPrefix("agentwalletctl")
	viper.AutomaticEnv()

	root.AddCommand(
		newTransactionCommand(),
		newKillSwitchCommand(),
		newDeadManCommand(),
		newSpawnCommand(),
		newCrossAgentCommand(),
		newAuditCommand(),
	)
	return root
}

func client() *ctlclient.Client {
	token := flags.token
	if token == "" {
		token = viper.GetString("token")
	}
	server := flags.server
	if v := viper.GetString("server"); v != "" && server == "" {
		server = v
	}
	return ctlclient.New(server, token)
}
