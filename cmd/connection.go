package cmd

import (
	"github.com/spf13/cobra"
)

var connectionCommand = cobra.Command{
	Use:   "connection",
	Short: "inspect tenant provider connections",
	Long:  `Commands to inspect and exercise tenant provider connections`,
}
