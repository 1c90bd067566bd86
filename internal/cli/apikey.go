package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskboard/backend/pkg/utils/keygen"
)

var apiKeyLength int

// apikeyCmd needs no config; it only prints a fresh value for auth.api_key.
var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Generate a random API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keygen.GenerateAPIKey(apiKeyLength)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	apikeyCmd.Flags().IntVar(&apiKeyLength, "length", 40, "number of random characters")
	rootCmd.AddCommand(apikeyCmd)
}
