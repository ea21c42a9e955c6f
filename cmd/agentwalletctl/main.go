// Command agentwalletctl is the operator CLI for a running agentwalletd.
package main

import (
	"fmt"
	"os"

	"github.com/agentwallet/agentwallet/cmd/agentwalletctl/cmd"
)

func main() {
	if err := cmd.NewDefaultAgentWalletCtlCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
