package main

import (
	"fmt"
	"log"
	"os"

	"github.com/alann-h/picking-software-sub002/cmd"
	"github.com/alann-h/picking-software-sub002/config"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v4"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	Version   = "?"
	BuildTime = "?"
	GitCommit = "-"
	GitRef    = "-"
)

func main() {
	//version info
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("psub %s, built %s from %s (%s)", Version, BuildTime, GitCommit, GitRef)
		return
	}
	logger := bootstrap()
	defer func() {
		_ = logger.Sync()

	}()
	cmd.TopLevelLogger = logger
	cmd.Execute()
}

func bootstrap() *zap.Logger {
	if _, err := os.Stat(".env"); err == nil {
		err := godotenv.Load()
		if err != nil {
			log.Fatal("Error loading .env file")
		}
	}
	cfg := zap.NewProductionConfig()
	if r := os.Getenv("DEBUG_LOG"); r == "true" {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		log.Fatal(err)
	}
	cobra.OnInitialize(func() { initConfig(logger) })
	return logger
}

func setDefaults() {
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.address", "")
	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.dsn", "psub.db")
	viper.SetDefault(
		"providers.quickbooks.token-url",
		"https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer",
	)
	viper.SetDefault(
		"providers.quickbooks.base-url",
		"https://quickbooks.api.intuit.com",
	)
	viper.SetDefault("providers.quickbooks.refresh-timeout", "10s")
	viper.SetDefault("providers.xero.token-url", "https://identity.xero.com/connect/token")
	viper.SetDefault("providers.xero.base-url", "https://api.xero.com")
	viper.SetDefault("providers.xero.refresh-timeout", "10s")
}

func initConfig(logger *zap.Logger) {
	bind := func(from string, to string) {
		err := viper.BindEnv(to, from)
		if err != nil {
			logger.Error("unable to bindenv", zap.String("from", from), zap.String(to, to), zap.Error(err))
		}

	}
	setDefaults()
	bind("PORT", "server.port")
	bind("ADDRESS", "server.address")

	bind("PSUB_PORT", "server.port")
	bind("PSUB_ADDRESS", "server.address")
	bind("PSUB_SERVER_SERVICE_TOKEN", "server.service-token")
	bind("PSUB_SERVER_ALLOWED_ORIGINS", "server.allowed-origins")

	bind("PSUB_DATABASE_TYPE", "database.type")
	bind("PSUB_DATABASE_DSN", "database.dsn")

	bind("PSUB_VAULT_SECRET", "vault.secret")

	bind("PSUB_QBO_CLIENT_ID", "providers.quickbooks.client-id")
	bind("PSUB_QBO_CLIENT_SECRET", "providers.quickbooks.client-secret")
	bind("PSUB_QBO_TOKEN_URL", "providers.quickbooks.token-url")
	bind("PSUB_QBO_BASE_URL", "providers.quickbooks.base-url")
	bind("PSUB_QBO_REFRESH_TIMEOUT", "providers.quickbooks.refresh-timeout")

	bind("PSUB_XERO_CLIENT_ID", "providers.xero.client-id")
	bind("PSUB_XERO_CLIENT_SECRET", "providers.xero.client-secret")
	bind("PSUB_XERO_TOKEN_URL", "providers.xero.token-url")
	bind("PSUB_XERO_BASE_URL", "providers.xero.base-url")
	bind("PSUB_XERO_REFRESH_TIMEOUT", "providers.xero.refresh-timeout")

	if cmd.ConfigFileLocation != "" {
		logger.Debug("Using supplied config file", zap.String("file", cmd.ConfigFileLocation))
		viper.SetConfigFile(cmd.ConfigFileLocation)
	} else {
		path, err := os.Getwd()
		if err != nil {
			logger.Warn("Unable to get current working dir", zap.Error(err))
		}
		cobra.CheckErr(err)
		viper.AddConfigPath(path)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		logger.Debug("Looking for default config file")
	}
	//precedence: environment overwrites yml
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Debug("No confg file loaded")
	} else {
		logger.Debug("Config file loaded", zap.String("file", viper.ConfigFileUsed()))
	}

	conf := &config.Configuration{}
	err := viper.Unmarshal(conf)
	if err != nil {
		logger.Fatal("Unable to unmarshall config", zap.Error(err))
	}
	logger.Debug("Config loaded", zap.Any("config", conf))
	logger.Debug("Validating final config")
	if err = conf.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	cmd.LoadedConfig = conf
}
