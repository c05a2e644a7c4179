package cmd

import (
	"log"

	"github.com/alann-h/picking-software-sub002/connection"
	"github.com/alann-h/picking-software-sub002/credentials"
	"github.com/alann-h/picking-software-sub002/db"
	"github.com/alann-h/picking-software-sub002/events"
	"github.com/alann-h/picking-software-sub002/provider"
	"github.com/alann-h/picking-software-sub002/vault"
	"go.uber.org/zap"
)

func mustResolveUsableDataStore() *db.DataStore {
	var dataStore *db.DataStore
	var err error
	switch LoadedConfig.Database.Type {
	case "sqlite":
		dataStore, err = db.NewSqliteStore(TopLevelLogger.Named("database"), LoadedConfig.Database)
	case "mysql":
		dataStore, err = db.NewMysqlStore(TopLevelLogger.Named("database"), LoadedConfig.Database)
	case "pg":
		dataStore, err = db.NewPostgresStore(TopLevelLogger.Named("database"), LoadedConfig.Database)
	default:
		log.Fatal("Unknown database type")
	}
	if err != nil {
		TopLevelLogger.Fatal("Failed to create datastore", zap.Error(err))
	}
	err = dataStore.EnsureUsable()
	if err != nil {
		TopLevelLogger.Fatal("Datastore is unusable", zap.Error(err))
	}
	return dataStore
}

func bootstrapDispatcher(auditor db.Auditor) *events.Dispatcher {
	dispatcher := events.NewDispatcher(TopLevelLogger.Named("event_dispatcher"))
	//bootstrap listeners
	dbLayer := db.BootstrapListeners(auditor, TopLevelLogger.Named("event_listener"))
	dispatcher.Register(dbLayer...)
	return dispatcher
}

func resolveAdapters() []provider.Adapter {
	adapters := make([]provider.Adapter, 0, 2)
	if LoadedConfig.Providers.QuickBooks.Enabled() {
		adapters = append(
			adapters,
			provider.NewQuickBooks(
				LoadedConfig.Providers.QuickBooks,
				TopLevelLogger.Named("quickbooks_adapter"),
			),
		)
	}
	if LoadedConfig.Providers.Xero.Enabled() {
		adapters = append(
			adapters,
			provider.NewXero(LoadedConfig.Providers.Xero, TopLevelLogger.Named("xero_adapter")),
		)
	}
	return adapters
}

// resolveCoordinator wires the full refresh stack on top of a datastore
func resolveCoordinator(
	dataStore *db.DataStore,
) (*connection.Coordinator, *connection.HealthTracker, *credentials.Store) {
	cipher := vault.NewCipher(LoadedConfig.Vault.Secret)
	credentialStore := credentials.NewStore(
		dataStore,
		cipher,
		TopLevelLogger.Named("credential_store"),
	)
	dispatcher := bootstrapDispatcher(dataStore.Auditor())
	tracker := connection.NewHealthTracker(dataStore, TopLevelLogger.Named("health_tracker"))
	coordinator := connection.NewCoordinator(
		credentialStore,
		resolveAdapters(),
		tracker,
		dispatcher,
		TopLevelLogger.Named("refresh_coordinator"),
	)
	return coordinator, tracker, credentialStore
}
