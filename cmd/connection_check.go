package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alann-h/picking-software-sub002/connection"
	"github.com/alann-h/picking-software-sub002/credentials"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var checkTenantID string
var checkProvider string
var checkDue bool

var checkConnectionCommand = cobra.Command{
	Use:   "check",
	Short: "Runs a token check against a connection",
	Long: `Resolves a valid access token for a connection, refreshing it when
	needed, and prints the outcome. With --due every overdue connection
	is checked instead`,
	Run: func(cmd *cobra.Command, args []string) {
		dataStore := mustResolveUsableDataStore()
		coordinator, tracker, _ := resolveCoordinator(dataStore)

		if checkDue {
			due, err := tracker.Due(context.Background())
			if err != nil {
				fmt.Printf("Unable to load due connections: %s", err)
				os.Exit(1)
				return
			}
			if len(due) == 0 {
				fmt.Println("no connections due")
				return
			}
			for _, d := range due {
				outcome := checkOne(coordinator, d.TenantID, d.Provider)
				fmt.Printf("%s %s: %s\n", d.TenantID, d.Provider, outcome)
			}
			return
		}

		tenantID, err := uuid.Parse(checkTenantID)
		if err != nil {
			fmt.Println("--tenant must be a valid uuid")
			os.Exit(1)
			return
		}
		p, err := credentials.ParseProvider(checkProvider)
		if err != nil {
			fmt.Println("--provider must be qbo or xero")
			os.Exit(1)
			return
		}
		fmt.Println(checkOne(coordinator, tenantID, p))
	},
}

func checkOne(
	coordinator *connection.Coordinator,
	tenantID uuid.UUID,
	p credentials.Provider,
) string {
	token, err := coordinator.ValidToken(context.Background(), tenantID, p)
	switch {
	case err == nil:
		return fmt.Sprintf("healthy, access token valid until %s",
			token.AccessExpiresAt.Format("2006-01-02 15:04:05"))
	case errors.Is(err, connection.ErrReauthRequired):
		return "re-authentication required, the tenant has to reconnect"
	case errors.Is(err, connection.ErrProviderUnavailable):
		return fmt.Sprintf("provider unavailable, retry later: %s", err)
	default:
		return fmt.Sprintf("check failed: %s", err)
	}
}

func init() {
	checkConnectionCommand.Flags().
		StringVarP(&checkTenantID, "tenant", "t", "", "tenant id to check")
	checkConnectionCommand.Flags().
		StringVarP(&checkProvider, "provider", "p", "", "provider to check (qbo or xero)")
	checkConnectionCommand.Flags().
		BoolVar(&checkDue, "due", false, "check every connection whose next check is due")
}
