// Command creditctl runs credit ledger maintenance tasks from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/pixelmuse/server/internal/shared/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "creditctl",
		Short:         "Credit ledger and refill maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./config.yaml, ./configs, /etc/pixelmuse)")

	loadConfig := func() (*config.Config, error) {
		return config.LoadFrom(configPath)
	}

	root.AddCommand(
		newSweepCmd(loadConfig),
		newMigrateCmd(loadConfig),
		newCostCmd(),
	)
	return root
}
