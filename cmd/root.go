// Package cmd contains the command line interface of the service
package cmd

import (
	"fmt"
	"os"

	"github.com/alann-h/picking-software-sub002/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ConfigFileLocation is of the config to load
var ConfigFileLocation string

// TopLevelLogger is the logger all loggers come from
var TopLevelLogger *zap.Logger

// LoadedConfig is the currently loaded configuration after initial bootstrapping
var LoadedConfig *config.Configuration

var rootCommand = cobra.Command{
	Use:   "psub",
	Short: "psub keeps accounting provider connections alive",
	Long: `psub manages the QuickBooks Online and Xero credentials of every
	tenant: encrypted storage, coordinated token refresh and connection health`,
	Run: func(cmd *cobra.Command, args []string) {
		serveCommand.Run(cmd, args)
	},
}

func Execute() {
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {

	rootCommand.PersistentFlags().
		StringVar(&ConfigFileLocation, "config", "", "config file to be used")

	connectionCommand.AddCommand(&listConnectionsCommand)
	connectionCommand.AddCommand(&checkConnectionCommand)

	rootCommand.AddCommand(&connectionCommand)
	rootCommand.AddCommand(&serveCommand)
	rootCommand.AddCommand(&keyCommand)
}
