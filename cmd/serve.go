package cmd

import (
	"github.com/alann-h/picking-software-sub002/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCommand = cobra.Command{
	Use:   "serve",
	Short: "starts the http server",
	Long:  `Starts a http server and serves the service`,
	Run: func(cmd *cobra.Command, args []string) {
		//this is our composite root

		//setup datastore
		dataStore := mustResolveUsableDataStore()

		coordinator, tracker, credentialStore := resolveCoordinator(dataStore)

		server, err := api.NewServer(LoadedConfig, TopLevelLogger.Named("server"),
			coordinator,
			tracker,
			credentialStore,
		)
		if err != nil {
			TopLevelLogger.Fatal("Failed to create server", zap.Error(err))
		}
		if err := server.Start(); err != nil {
			TopLevelLogger.Fatal("Server stopped with error", zap.Error(err))
		}
		TopLevelLogger.Info("Shutdown complete")
	},
}

func init() {
	viper.SetDefault("port", "3000")
	viper.SetDefault("log_level", "debug")
}
