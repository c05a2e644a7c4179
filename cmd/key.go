package cmd

import (
	"fmt"

	"github.com/alann-h/picking-software-sub002/generator"
	"github.com/spf13/cobra"
)

var keySize int32 = 32

var keyCommand = cobra.Command{
	Use:   "random-key",
	Short: "generates a random key",
	Long:  `generates a cryptographic secure random key, use it as the vault secret`,
	Run: func(cmd *cobra.Command, args []string) {
		key := generator.New().CreateSecretWithSize(int(keySize))
		fmt.Println(key)
	},
}

func init() {
	keyCommand.Flags().Int32VarP(&keySize, "size", "s", 64, "sets key size")
}
