package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listConnectionsCommand = cobra.Command{
	Use:   "ls",
	Short: "Lists all tenant provider connections",
	Long:  `This will list the health of every tenant provider connection`,
	Run: func(cmd *cobra.Command, args []string) {
		dataStore := mustResolveUsableDataStore()
		lst, err := dataStore.AllConnectionHealth(context.Background())
		if err != nil {
			fmt.Printf("Unable to load connections: %s", err)
			os.Exit(1)
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 1, 1, 1, ' ', 0)
		fmt.Fprintf(
			w,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s \r\n",
			"TenantID",
			"Provider",
			"Status",
			"Failures",
			"LastCheck",
			"LastSuccess",
			"NextCheckDue",
		)
		for _, v := range lst {
			lastSuccess := "-"
			if v.LastSuccessfulCall != nil {
				lastSuccess = v.LastSuccessfulCall.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(
				w,
				"%s\t%s\t%s\t%d\t%s\t%s\t%s \r\n",
				v.TenantID,
				v.Provider,
				v.Status,
				v.FailureCount,
				v.LastCheck.Format("2006-01-02 15:04:05"),
				lastSuccess,
				v.NextCheckDue.Format("2006-01-02 15:04:05"),
			)
		}

		fmt.Fprintf(w, "------------------------------------------------- \r\n")
		fmt.Fprintf(w, "%d entries loaded", len(lst))
		w.Flush()
	},
}
